package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"ilim-checkout/internal/config"
	"ilim-checkout/internal/ports"
	"ilim-checkout/internal/service"
)

const purchasePrefix = "/purchase/"

// CheckoutProvider builds a checkout that reports navigation to the given navigator.
type CheckoutProvider interface {
	Checkout(navigator ports.Navigator) *service.Checkout
	Policy(ctx context.Context) *config.PurchasePolicy
}

// APIHandler handles HTTP requests from API Gateway. Callers are identified by
// their bearer token, so one caller never sees another caller's sessions.
type APIHandler struct {
	provider CheckoutProvider
	logger   *slog.Logger
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(provider CheckoutProvider, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		provider: provider,
		logger:   logger,
	}
}

// Handle routes API Gateway requests to the appropriate handler.
func (h *APIHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	h.logger.Info("request received",
		"path", req.Path,
		"method", req.HTTPMethod)

	courseID, ok := courseIDFromRequest(req)
	if !ok {
		h.logger.Warn("route not found",
			"path", req.Path,
			"method", req.HTTPMethod)
		return NewErrorResponse(http.StatusNotFound, "route not found"), nil
	}

	switch req.HTTPMethod {
	case http.MethodPost:
		return h.handlePurchase(ctx, req, courseID)
	case http.MethodGet:
		return h.handleStatus(ctx, req, courseID)
	default:
		return NewErrorResponse(http.StatusMethodNotAllowed, "method not allowed"), nil
	}
}

func courseIDFromRequest(req events.APIGatewayProxyRequest) (string, bool) {
	if id := req.PathParameters["courseId"]; id != "" {
		return id, true
	}
	if !strings.HasPrefix(req.Path, purchasePrefix) {
		return "", false
	}
	id := strings.Trim(strings.TrimPrefix(req.Path, purchasePrefix), "/")
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func authorizationHeader(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, "Authorization") {
			return v
		}
	}
	return ""
}
