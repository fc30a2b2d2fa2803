package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"ilim-checkout/internal/adapters/navigation"
	"ilim-checkout/internal/domain"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SuccessResponse represents a success response.
type SuccessResponse struct {
	Data any `json:"data"`
}

// PurchaseResponse is the body of a purchase or status request. Navigation lists
// what the client should do as a result of this request.
type PurchaseResponse struct {
	SessionID   string                `json:"session_id"`
	CourseID    string                `json:"course_id"`
	RedirectURL string                `json:"redirect_url"`
	State       domain.PollState      `json:"state"`
	Attempts    int                   `json:"attempts"`
	MaxAttempts int                   `json:"max_attempts"`
	LastStatus  domain.PurchaseStatus `json:"last_status,omitempty"`
	Error       string                `json:"error,omitempty"`
	Navigation  []navigation.Event    `json:"navigation"`
}

// NewPurchaseResponse builds the response body for a session snapshot.
func NewPurchaseResponse(session *domain.PurchaseSession, events []navigation.Event) PurchaseResponse {
	if events == nil {
		events = []navigation.Event{}
	}
	return PurchaseResponse{
		SessionID:   session.ID,
		CourseID:    session.CourseID,
		RedirectURL: session.RedirectURL,
		State:       session.State,
		Attempts:    session.AttemptCount,
		MaxAttempts: session.MaxAttempts,
		LastStatus:  session.LastStatus,
		Error:       session.Error,
		Navigation:  events,
	}
}

// NewErrorResponse creates an API Gateway error response.
func NewErrorResponse(statusCode int, message string) events.APIGatewayProxyResponse {
	body, err := json.Marshal(ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
	if err != nil {
		slog.Error("failed to marshal error response", "error", err, "status_code", statusCode)
		return jsonResponse(http.StatusInternalServerError, `{"error":"Internal Server Error","message":"failed to build error response"}`)
	}
	return jsonResponse(statusCode, string(body))
}

// NewSuccessResponse creates an API Gateway success response.
func NewSuccessResponse(statusCode int, data any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(SuccessResponse{Data: data})
	if err != nil {
		slog.Error("failed to marshal success response", "error", err, "status_code", statusCode)
		return jsonResponse(http.StatusInternalServerError, `{"error":"Internal Server Error","message":"failed to build response"}`)
	}
	return jsonResponse(statusCode, string(body))
}

func jsonResponse(statusCode int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: body,
	}
}
