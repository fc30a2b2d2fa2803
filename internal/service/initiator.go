package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"ilim-checkout/internal/domain"
	"ilim-checkout/internal/ports"
)

// Initiator creates purchase intents and opens the external payment page.
type Initiator struct {
	api       ports.PurchaseAPI
	navigator ports.Navigator
	logger    *slog.Logger
}

// NewInitiator creates a new initiator with injected dependencies.
func NewInitiator(api ports.PurchaseAPI, navigator ports.Navigator, logger *slog.Logger) *Initiator {
	return &Initiator{
		api:       api,
		navigator: navigator,
		logger:    logger,
	}
}

// Initiate sends one authenticated purchase request for the course and returns the redirect URL.
func (i *Initiator) Initiate(ctx context.Context, auth domain.AuthSession, courseID string) (string, error) {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return "", domain.ErrInvalidCourseID
	}

	if !auth.Valid() {
		return "", &domain.AuthenticationError{Err: domain.ErrMissingCredential}
	}

	logger := i.logger.With("course_id", courseID)
	logger.Debug("initiating purchase")

	redirectURL, err := i.api.InitiatePurchase(ctx, auth, courseID)
	if err != nil {
		return "", classifyInitiationError(courseID, err)
	}

	if redirectURL == "" {
		return "", &domain.PurchaseInitiationError{
			CourseID: courseID,
			Message:  "empty redirect url",
		}
	}

	logger.Info("purchase initiated", "redirect_url", redirectURL)

	if err := i.navigator.OpenExternal(ctx, redirectURL); err != nil {
		logger.Warn("failed to open payment page", "error", err)
	}

	return redirectURL, nil
}

// classifyInitiationError keeps typed errors and wraps everything else.
func classifyInitiationError(courseID string, err error) error {
	var authErr *domain.AuthenticationError
	if errors.As(err, &authErr) {
		return err
	}
	var initErr *domain.PurchaseInitiationError
	if errors.As(err, &initErr) {
		return err
	}
	return &domain.PurchaseInitiationError{CourseID: courseID, Err: err}
}
