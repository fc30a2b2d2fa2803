package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ilim-checkout/internal/domain"
)

// terminalSnapshotTTL bounds how long a finished session stays visible.
const terminalSnapshotTTL = time.Hour

// Repository implements ports.SessionRepository using Redis.
type Repository struct {
	client     *Client
	ttl        time.Duration
	outcomeTTL time.Duration
}

// NewRepository creates a new Redis repository.
func NewRepository(client *Client, ttl, outcomeTTL time.Duration) *Repository {
	return &Repository{
		client:     client,
		ttl:        ttl,
		outcomeTTL: outcomeTTL,
	}
}

// SaveSession stores the latest snapshot of a purchase session.
// Terminal snapshots expire sooner than live ones.
func (r *Repository) SaveSession(ctx context.Context, session *domain.PurchaseSession) error {
	key := fmt.Sprintf(KeyPatternPurchaseSession, session.ID)

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal purchase session: %w", err)
	}

	ttl := r.ttl
	if session.State.IsTerminal() && terminalSnapshotTTL < ttl {
		ttl = terminalSnapshotTTL
	}

	if err := r.client.Set(ctx, key, string(data), ttl); err != nil {
		return fmt.Errorf("save purchase session: %w", err)
	}

	return nil
}

// ActivateSession points the subject's course at session. Pollers of any other
// session for the same subject and course stop on their next tick.
func (r *Repository) ActivateSession(ctx context.Context, session *domain.PurchaseSession) error {
	key := fmt.Sprintf(KeyPatternActiveSession, session.Subject, session.CourseID)
	if err := r.client.Set(ctx, key, session.ID, r.ttl); err != nil {
		return fmt.Errorf("activate purchase session: %w", err)
	}
	return nil
}

// ActiveSessionID returns the id of the current session of a subject for a course.
func (r *Repository) ActiveSessionID(ctx context.Context, subject, courseID string) (string, error) {
	key := fmt.Sprintf(KeyPatternActiveSession, subject, courseID)

	id, err := r.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get active purchase session: %w", err)
	}
	return id, nil
}

// GetSession retrieves the snapshot of the current session of a subject for a course.
func (r *Repository) GetSession(ctx context.Context, subject, courseID string) (*domain.PurchaseSession, error) {
	id, err := r.ActiveSessionID(ctx, subject, courseID)
	if err != nil {
		return nil, err
	}

	data, err := r.client.Get(ctx, fmt.Sprintf(KeyPatternPurchaseSession, id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get purchase session: %w", err)
	}

	var session domain.PurchaseSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("unmarshal purchase session: %w", err)
	}

	return &session, nil
}

// ClaimOutcome marks the outcome of a session as delivered using SETNX.
func (r *Repository) ClaimOutcome(ctx context.Context, sessionID string) (bool, error) {
	key := fmt.Sprintf(KeyPatternPurchaseOutcome, sessionID)

	ok, err := r.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), r.outcomeTTL)
	if err != nil {
		return false, fmt.Errorf("claim outcome: %w", err)
	}
	return ok, nil
}
