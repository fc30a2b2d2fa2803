package ports

import (
	"context"

	"ilim-checkout/internal/domain"
)

// CredentialStore provides the authenticated session for the current user.
type CredentialStore interface {
	// Load returns the session, or an AuthenticationError if no token is stored.
	Load(ctx context.Context) (domain.AuthSession, error)
}

// SessionWriter is implemented by stores that sign-in/sign-out can mutate.
type SessionWriter interface {
	SignIn(ctx context.Context, auth domain.AuthSession) error
	SignOut(ctx context.Context, subject string) error
}
