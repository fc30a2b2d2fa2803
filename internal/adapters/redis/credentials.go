package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ilim-checkout/internal/domain"
)

// CredentialStore keeps the bearer token of a signed-in user under
// session:{subject}:accessToken.
type CredentialStore struct {
	client  *Client
	subject string
	ttl     time.Duration
}

// NewCredentialStore creates a credential store bound to one subject.
func NewCredentialStore(client *Client, subject string, ttl time.Duration) *CredentialStore {
	return &CredentialStore{
		client:  client,
		subject: subject,
		ttl:     ttl,
	}
}

// Load returns the stored session for the subject.
func (s *CredentialStore) Load(ctx context.Context) (domain.AuthSession, error) {
	key := fmt.Sprintf(KeyPatternAccessToken, s.subject)

	token, err := s.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.AuthSession{}, &domain.AuthenticationError{Err: domain.ErrMissingCredential}
		}
		return domain.AuthSession{}, fmt.Errorf("get access token: %w", err)
	}

	if token == "" {
		return domain.AuthSession{}, &domain.AuthenticationError{Err: domain.ErrMissingCredential}
	}

	return domain.AuthSession{Subject: s.subject, AccessToken: token}, nil
}

// SignIn stores the token of a session. An empty subject uses the store's subject.
func (s *CredentialStore) SignIn(ctx context.Context, auth domain.AuthSession) error {
	if !auth.Valid() {
		return &domain.AuthenticationError{Err: domain.ErrMissingCredential}
	}

	subject := auth.Subject
	if subject == "" {
		subject = s.subject
	}

	key := fmt.Sprintf(KeyPatternAccessToken, subject)
	if err := s.client.Set(ctx, key, auth.AccessToken, s.ttl); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}
	return nil
}

// SignOut removes the stored token of a subject.
func (s *CredentialStore) SignOut(ctx context.Context, subject string) error {
	if subject == "" {
		subject = s.subject
	}

	key := fmt.Sprintf(KeyPatternAccessToken, subject)
	if err := s.client.Del(ctx, key); err != nil {
		return fmt.Errorf("delete access token: %w", err)
	}
	return nil
}
