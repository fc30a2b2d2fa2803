package app

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"ilim-checkout/internal/config"
	"ilim-checkout/internal/domain"
	"ilim-checkout/internal/ports"
	"ilim-checkout/internal/service"
)

var errSessionsReadOnly = errors.New("credential source does not support sign-in")

// App is the main application container.
type App struct {
	cfg         *config.AppConfig
	logger      *slog.Logger
	api         ports.PurchaseAPI
	repository  ports.SessionRepository
	scanner     ports.SessionScanner
	policies    ports.PolicyLoader
	credentials ports.CredentialStore
	sessions    ports.SessionWriter
	closer      io.Closer
}

// Options configures the App.
type Options struct {
	Config      *config.AppConfig
	Logger      *slog.Logger
	API         ports.PurchaseAPI
	Repository  ports.SessionRepository
	Scanner     ports.SessionScanner
	Policies    ports.PolicyLoader
	Credentials ports.CredentialStore
	Sessions    ports.SessionWriter
	Closer      io.Closer
}

// New creates a new App with all dependencies injected.
func New(opts Options) *App {
	return &App{
		cfg:         opts.Config,
		logger:      opts.Logger,
		api:         opts.API,
		repository:  opts.Repository,
		scanner:     opts.Scanner,
		policies:    opts.Policies,
		credentials: opts.Credentials,
		sessions:    opts.Sessions,
		closer:      opts.Closer,
	}
}

// Checkout builds a checkout workflow that reports to navigator.
func (a *App) Checkout(navigator ports.Navigator) *service.Checkout {
	return service.NewCheckout(service.CheckoutOptions{
		API:        a.api,
		Navigator:  navigator,
		Repository: a.repository,
		Scanner:    a.scanner,
		Policies:   a.policies,
		Overrides:  a.cfg.Purchase,
		Logger:     a.logger.With("component", "checkout"),
	})
}

// Policy returns the current purchase policy, or the defaults when it cannot be loaded.
func (a *App) Policy(ctx context.Context) *config.PurchasePolicy {
	policy, err := a.policies.LoadPolicy(ctx)
	if err != nil {
		a.logger.Warn("failed to load purchase policy, using defaults", "error", err)
		return config.DefaultPolicy().WithOverrides(a.cfg.Purchase)
	}
	return policy
}

// Config returns the application configuration.
func (a *App) Config() *config.AppConfig {
	return a.cfg
}

// Credentials returns the configured credential store.
func (a *App) Credentials() ports.CredentialStore {
	return a.credentials
}

// Close releases the connections held by the app.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// SignIn stores the access token for later purchases.
func (a *App) SignIn(ctx context.Context, auth domain.AuthSession) error {
	if a.sessions == nil {
		return &domain.ConfigError{ConfigName: "credentials", Field: "CREDENTIALS_SOURCE", Err: errSessionsReadOnly}
	}
	if !auth.Valid() {
		return &domain.AuthenticationError{Err: domain.ErrMissingCredential}
	}
	if err := a.sessions.SignIn(ctx, auth); err != nil {
		return &domain.PurchaseError{Op: "SignIn", Err: err}
	}
	a.logger.Info("signed in", "subject", auth.Subject)
	return nil
}

// SignOut removes the stored access token of subject.
func (a *App) SignOut(ctx context.Context, subject string) error {
	if a.sessions == nil {
		return &domain.ConfigError{ConfigName: "credentials", Field: "CREDENTIALS_SOURCE", Err: errSessionsReadOnly}
	}
	if err := a.sessions.SignOut(ctx, subject); err != nil {
		return &domain.PurchaseError{Op: "SignOut", Err: err}
	}
	a.logger.Info("signed out", "subject", subject)
	return nil
}
