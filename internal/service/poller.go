package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ilim-checkout/internal/domain"
	"ilim-checkout/internal/ports"
)

// Poller drives a purchase session from Polling to a terminal state.
//
// Each Run owns a single ticker. Ticks are handled synchronously in the calling
// goroutine, so status requests for a session never overlap. Transport errors end
// the session; only non-successful statuses are retried, up to MaxAttempts.
// A session stops as canceled once the repository names another session active
// for its subject and course.
type Poller struct {
	api        ports.PurchaseAPI
	repository ports.SessionRepository
	logger     *slog.Logger
}

// NewPoller creates a new poller with injected dependencies.
func NewPoller(api ports.PurchaseAPI, repository ports.SessionRepository, logger *slog.Logger) *Poller {
	return &Poller{
		api:        api,
		repository: repository,
		logger:     logger,
	}
}

// Run polls until the session is terminal or ctx is canceled.
func (p *Poller) Run(ctx context.Context, session *domain.PurchaseSession) domain.Outcome {
	logger := p.logger.With(
		"course_id", session.CourseID,
		"session_id", session.ID,
	)

	logger.Debug("polling started",
		"interval", session.PollInterval,
		"max_attempts", session.MaxAttempts,
	)

	ticker := time.NewTicker(session.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return p.cancel(ctx, session, ctx.Err(), logger)
		case <-ticker.C:
			if outcome, done := p.tick(ctx, session, logger); done {
				return outcome
			}
		}
	}
}

// Step runs a single status check for a session that is not driven by Run.
// It reports whether the session became terminal.
func (p *Poller) Step(ctx context.Context, session *domain.PurchaseSession) (domain.Outcome, bool) {
	logger := p.logger.With(
		"course_id", session.CourseID,
		"session_id", session.ID,
	)
	return p.tick(ctx, session, logger)
}

// tick issues one status check and applies the resulting transition.
func (p *Poller) tick(ctx context.Context, session *domain.PurchaseSession, logger *slog.Logger) (domain.Outcome, bool) {
	if ctx.Err() != nil {
		return p.cancel(ctx, session, ctx.Err(), logger), true
	}
	if p.superseded(ctx, session, logger) {
		return p.cancel(ctx, session, domain.ErrSuperseded, logger), true
	}

	auth := domain.AuthSession{Subject: session.Subject, AccessToken: session.AccessToken}
	status, err := p.api.CheckPurchase(ctx, auth, session.CourseID)
	if err != nil {
		if ctx.Err() != nil {
			return p.cancel(ctx, session, ctx.Err(), logger), true
		}

		cause := asTransportError(session.CourseID, err)
		session.Transition(domain.PollStateErrored, cause)
		p.save(ctx, session, logger)

		logger.Error("status check failed", "attempt", session.AttemptCount, "error", cause)
		return domain.NewOutcome(session, cause), true
	}

	if status == domain.PurchaseStatusSucceeded {
		session.LastStatus = status
		session.Transition(domain.PollStateSucceeded, nil)
		p.save(ctx, session, logger)

		logger.Info("purchase confirmed", "attempts", session.AttemptCount)
		return domain.NewOutcome(session, nil), true
	}

	if session.RecordAttempt(status) {
		cause := &domain.TimeoutError{CourseID: session.CourseID, Attempts: session.AttemptCount}
		session.Transition(domain.PollStateExhausted, cause)
		p.save(ctx, session, logger)

		logger.Warn("purchase not confirmed before attempt bound", "attempts", session.AttemptCount)
		return domain.NewOutcome(session, cause), true
	}

	p.save(ctx, session, logger)
	logger.Debug("purchase still pending",
		"status", status,
		"attempt", session.AttemptCount,
		"max_attempts", session.MaxAttempts,
	)
	return domain.Outcome{}, false
}

// superseded reports whether another session is now active for the same subject and course.
// A missing or unreadable pointer never stops polling.
func (p *Poller) superseded(ctx context.Context, session *domain.PurchaseSession, logger *slog.Logger) bool {
	activeID, err := p.repository.ActiveSessionID(ctx, session.Subject, session.CourseID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("failed to read active session", "error", err)
		}
		return false
	}
	return activeID != session.ID
}

func (p *Poller) cancel(ctx context.Context, session *domain.PurchaseSession, cause error, logger *slog.Logger) domain.Outcome {
	session.Transition(domain.PollStateCanceled, cause)
	p.save(context.WithoutCancel(ctx), session, logger)

	logger.Info("polling canceled", "attempts", session.AttemptCount, "cause", cause)
	return domain.NewOutcome(session, cause)
}

// save stores a snapshot. Failures are logged and never change the session state.
func (p *Poller) save(ctx context.Context, session *domain.PurchaseSession, logger *slog.Logger) {
	if err := p.repository.SaveSession(ctx, session); err != nil {
		logger.Warn("failed to save session snapshot", "error", err)
	}
}

func asTransportError(courseID string, err error) error {
	var transportErr *domain.TransportError
	if errors.As(err, &transportErr) {
		return err
	}
	return &domain.TransportError{CourseID: courseID, Err: err}
}
