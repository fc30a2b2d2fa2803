package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"ilim-checkout/internal/domain"
)

// Scanner implements ports.SessionScanner using Redis.
type Scanner struct {
	client    *Client
	scanCount int64
	logger    *slog.Logger
}

// NewScanner creates a new Redis scanner.
func NewScanner(client *Client, scanCount int64, logger *slog.Logger) *Scanner {
	return &Scanner{
		client:    client,
		scanCount: scanCount,
		logger:    logger,
	}
}

// ScanSessions returns every stored purchase session, most recently updated first.
func (s *Scanner) ScanSessions(ctx context.Context) ([]*domain.PurchaseSession, error) {
	var sessions []*domain.PurchaseSession
	var cursor uint64

	for {
		keys, nextCursor, err := s.client.Native().Scan(ctx, cursor, scanPatternPurchaseSessions, s.scanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("scan redis keys: %w", err)
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key)
			if err != nil {
				s.logger.Warn("failed to get key", "key", key, "error", err)
				continue
			}

			var session domain.PurchaseSession
			if err := json.Unmarshal([]byte(data), &session); err != nil {
				s.logger.Warn("failed to unmarshal purchase session", "key", key, "error", err)
				continue
			}

			sessions = append(sessions, &session)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	s.logger.Debug("scan completed", "count", len(sessions))
	return sessions, nil
}
