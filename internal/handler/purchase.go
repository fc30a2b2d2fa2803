package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"ilim-checkout/internal/adapters/credentials"
	"ilim-checkout/internal/adapters/navigation"
	"ilim-checkout/internal/domain"
)

// handlePurchase handles POST /purchase/{courseId}. It initiates the purchase and
// answers 202 with the payment page right away. The client then polls with GET.
func (h *APIHandler) handlePurchase(ctx context.Context, req events.APIGatewayProxyRequest, courseID string) (events.APIGatewayProxyResponse, error) {
	auth, err := h.authenticate(ctx, req)
	if err != nil {
		h.logger.Warn("missing credential", "course_id", courseID)
		return NewErrorResponse(http.StatusUnauthorized, "missing bearer token"), nil
	}

	policy := h.provider.Policy(ctx)
	recorder := navigation.NewRecorder(policy.Navigation.PurchasedView)
	checkout := h.provider.Checkout(recorder)

	session, err := checkout.Begin(ctx, auth, courseID)
	if err != nil {
		return h.failure(courseID, err), nil
	}

	return NewSuccessResponse(http.StatusAccepted, NewPurchaseResponse(session, recorder.Events())), nil
}

// handleStatus handles GET /purchase/{courseId}. Each call advances the caller's
// session by at most one status check and returns the resulting snapshot.
func (h *APIHandler) handleStatus(ctx context.Context, req events.APIGatewayProxyRequest, courseID string) (events.APIGatewayProxyResponse, error) {
	auth, err := h.authenticate(ctx, req)
	if err != nil {
		h.logger.Warn("missing credential", "course_id", courseID)
		return NewErrorResponse(http.StatusUnauthorized, "missing bearer token"), nil
	}

	policy := h.provider.Policy(ctx)
	recorder := navigation.NewRecorder(policy.Navigation.PurchasedView)

	session, err := h.provider.Checkout(recorder).Step(ctx, auth, courseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return NewErrorResponse(http.StatusNotFound, "no purchase session for course "+courseID), nil
		}
		h.logger.Error("failed to advance session", "course_id", courseID, "error", err)
		return NewErrorResponse(http.StatusInternalServerError, "internal error"), nil
	}
	return NewSuccessResponse(http.StatusOK, NewPurchaseResponse(session, recorder.Events())), nil
}

func (h *APIHandler) authenticate(ctx context.Context, req events.APIGatewayProxyRequest) (domain.AuthSession, error) {
	return credentials.FromAuthorizationHeader("", authorizationHeader(req.Headers)).Load(ctx)
}

func (h *APIHandler) failure(courseID string, err error) events.APIGatewayProxyResponse {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("purchase failed", "course_id", courseID, "error", err)
	} else {
		h.logger.Warn("purchase rejected", "course_id", courseID, "error", err)
	}
	return NewErrorResponse(status, err.Error())
}

func statusForError(err error) int {
	var authErr *domain.AuthenticationError
	var initErr *domain.PurchaseInitiationError
	switch {
	case errors.Is(err, domain.ErrInvalidCourseID):
		return http.StatusBadRequest
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &initErr):
		if initErr.StatusCode >= 400 && initErr.StatusCode < 500 {
			return http.StatusConflict
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
