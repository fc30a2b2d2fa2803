package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ilim-checkout/internal/config"
	"ilim-checkout/internal/domain"
	"ilim-checkout/internal/ports"
)

// OutcomeHandler turns terminal sessions into user-visible navigation.
type OutcomeHandler struct {
	navigator  ports.Navigator
	repository ports.SessionRepository
	logger     *slog.Logger
}

// NewOutcomeHandler creates a new outcome handler with injected dependencies.
func NewOutcomeHandler(navigator ports.Navigator, repository ports.SessionRepository, logger *slog.Logger) *OutcomeHandler {
	return &OutcomeHandler{
		navigator:  navigator,
		repository: repository,
		logger:     logger,
	}
}

// Deliver presents the outcome of a session to the user. Canceled sessions deliver nothing.
// A second delivery for the same session returns domain.ErrOutcomeDelivered.
func (h *OutcomeHandler) Deliver(ctx context.Context, messages config.OutcomeMessages, outcome domain.Outcome) error {
	if !outcome.State.IsTerminal() || outcome.State == domain.PollStateCanceled {
		return nil
	}

	logger := h.logger.With(
		"course_id", outcome.CourseID,
		"session_id", outcome.SessionID,
		"state", outcome.State,
	)

	claimed, err := h.repository.ClaimOutcome(ctx, outcome.SessionID)
	if err != nil {
		logger.Warn("failed to claim outcome, delivering anyway", "error", err)
	} else if !claimed {
		logger.Warn("outcome already delivered")
		return domain.ErrOutcomeDelivered
	}

	switch outcome.State {
	case domain.PollStateSucceeded:
		logger.Info("navigating to purchased courses")
		return h.navigator.ShowPurchased(ctx, outcome.CourseID)
	case domain.PollStateExhausted:
		logger.Info("showing timeout message", "attempts", outcome.Attempts)
		return h.navigator.ShowError(ctx, outcome.CourseID, messages.Timeout, outcome.Err)
	default:
		logger.Info("showing error message", "error", outcome.Err)
		return h.navigator.ShowError(ctx, outcome.CourseID, errorMessage(messages.Error, outcome.Err), outcome.Err)
	}
}

// NotifyFailure surfaces an error raised before polling started.
func (h *OutcomeHandler) NotifyFailure(ctx context.Context, messages config.OutcomeMessages, courseID string, cause error) error {
	h.logger.Info("showing initiation failure", "course_id", courseID, "error", cause)
	return h.navigator.ShowError(ctx, courseID, errorMessage(messages.Error, cause), cause)
}

func errorMessage(prefix string, cause error) string {
	if cause == nil {
		return prefix
	}

	var authErr *domain.AuthenticationError
	if errors.As(cause, &authErr) {
		return "Please sign in again to purchase this course."
	}

	var initErr *domain.PurchaseInitiationError
	if errors.As(cause, &initErr) && initErr.Message != "" {
		return fmt.Sprintf("%s %s", prefix, initErr.Message)
	}

	return fmt.Sprintf("%s %v", prefix, cause)
}
