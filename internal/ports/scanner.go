package ports

import (
	"context"

	"ilim-checkout/internal/domain"
)

// SessionScanner lists persisted purchase sessions.
type SessionScanner interface {
	// ScanSessions returns all stored session snapshots.
	ScanSessions(ctx context.Context) ([]*domain.PurchaseSession, error)
}
