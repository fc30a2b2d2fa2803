package ports

import (
	"context"

	"ilim-checkout/internal/domain"
)

// SessionRepository persists purchase session snapshots.
type SessionRepository interface {
	// SaveSession stores the latest snapshot of a session, keyed by session id.
	SaveSession(ctx context.Context, session *domain.PurchaseSession) error
	// ActivateSession marks the session as the current one for its subject and course.
	ActivateSession(ctx context.Context, session *domain.PurchaseSession) error
	// ActiveSessionID returns the id of the current session or domain.ErrNotFound.
	ActiveSessionID(ctx context.Context, subject, courseID string) (string, error)
	// GetSession returns the current session of a subject for a course or domain.ErrNotFound.
	GetSession(ctx context.Context, subject, courseID string) (*domain.PurchaseSession, error)
	// ClaimOutcome records that the outcome of a session is being delivered.
	// It returns false when it was already claimed.
	ClaimOutcome(ctx context.Context, sessionID string) (bool, error)
}
