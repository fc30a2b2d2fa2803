package credentials

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"ilim-checkout/internal/domain"
)

// Static is a credential store holding a token supplied by the caller.
type Static struct {
	auth domain.AuthSession
}

// NewStatic creates a store for a fixed token.
func NewStatic(subject, token string) *Static {
	return &Static{auth: domain.AuthSession{Subject: subject, AccessToken: token}}
}

// SubjectForToken derives a stable caller identity from a bearer token without
// keeping the token itself. An empty token has no subject.
func SubjectForToken(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return "u-" + hex.EncodeToString(sum[:16])
}

// FromAuthorizationHeader builds a store from an "Authorization: Bearer ..." value.
// An empty subject is derived from the token.
func FromAuthorizationHeader(subject, header string) *Static {
	var token string
	fields := strings.Fields(header)
	switch {
	case len(fields) == 2 && strings.EqualFold(fields[0], "bearer"):
		token = fields[1]
	case len(fields) == 1 && !strings.EqualFold(fields[0], "bearer"):
		token = fields[0]
	}
	if subject == "" {
		subject = SubjectForToken(token)
	}
	return NewStatic(subject, token)
}

// Load returns the fixed session or an AuthenticationError when the token is empty.
func (s *Static) Load(ctx context.Context) (domain.AuthSession, error) {
	if !s.auth.Valid() {
		return domain.AuthSession{}, &domain.AuthenticationError{Err: domain.ErrMissingCredential}
	}
	return s.auth, nil
}
