package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ilim-checkout/internal/domain"
)

// maxErrorMessageRunes bounds a plain-text error body kept as a message.
const maxErrorMessageRunes = 200

// Config holds ilim backend settings.
type Config struct {
	BaseURL string        // e.g., "https://api.ilim.example"
	Timeout time.Duration // HTTP timeout
}

// Client implements ports.PurchaseAPI against the ilim REST backend.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new backend client.
func NewClient(config Config, logger *slog.Logger) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// envelope is the response shape used by every ilim endpoint.
type envelope struct {
	Body json.RawMessage `json:"body"`
}

// InitiatePurchase calls POST /student/purchase-course/{courseId} and returns the payment URL.
func (c *Client) InitiatePurchase(ctx context.Context, auth domain.AuthSession, courseID string) (string, error) {
	path := fmt.Sprintf("/student/purchase-course/%s", url.PathEscape(courseID))

	status, respBody, err := c.post(ctx, auth, path)
	if err != nil {
		return "", &domain.PurchaseInitiationError{CourseID: courseID, Err: err}
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return "", &domain.AuthenticationError{
			StatusCode: status,
			Err:        errors.New(errorMessage(respBody)),
		}
	}

	if status < 200 || status >= 300 {
		return "", &domain.PurchaseInitiationError{
			CourseID:   courseID,
			StatusCode: status,
			Message:    errorMessage(respBody),
		}
	}

	redirectURL, err := decodeBodyString(respBody)
	if err != nil {
		return "", &domain.PurchaseInitiationError{CourseID: courseID, StatusCode: status, Err: err}
	}

	c.logger.Debug("purchase intent created", "course_id", courseID)
	return redirectURL, nil
}

// CheckPurchase calls POST /student/course/{courseId}/check-purchase.
func (c *Client) CheckPurchase(ctx context.Context, auth domain.AuthSession, courseID string) (domain.PurchaseStatus, error) {
	path := fmt.Sprintf("/student/course/%s/check-purchase", url.PathEscape(courseID))

	status, respBody, err := c.post(ctx, auth, path)
	if err != nil {
		return "", &domain.TransportError{CourseID: courseID, Err: err}
	}

	if status < 200 || status >= 300 {
		return "", &domain.TransportError{
			CourseID:   courseID,
			StatusCode: status,
			Message:    errorMessage(respBody),
		}
	}

	raw, err := decodeBodyString(respBody)
	if err != nil {
		return "", &domain.TransportError{CourseID: courseID, StatusCode: status, Err: err}
	}

	return domain.ParsePurchaseStatus(raw), nil
}

// post sends an authenticated, body-less POST and returns the status code and raw body.
func (c *Client) post(ctx context.Context, auth domain.AuthSession, path string) (int, []byte, error) {
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+auth.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("backend response", "path", path, "status", resp.StatusCode)
	return resp.StatusCode, respBody, nil
}

// decodeBodyString extracts the string carried in the "body" field.
func decodeBodyString(data []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(env.Body) == 0 {
		return "", errors.New("response has no body field")
	}

	var s string
	if err := json.Unmarshal(env.Body, &s); err != nil {
		return "", fmt.Errorf("body is not a string: %w", err)
	}
	return s, nil
}

// errorMessage picks a human readable message from an arbitrary error body.
func errorMessage(data []byte) string {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err == nil {
		for _, key := range []string{"message", "error", "body"} {
			if s, ok := fields[key].(string); ok && s != "" {
				return s
			}
		}
	}

	msg := strings.TrimSpace(string(data))
	if r := []rune(msg); len(r) > maxErrorMessageRunes {
		msg = string(r[:maxErrorMessageRunes])
	}
	return msg
}
