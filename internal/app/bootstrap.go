package app

import (
	"context"
	"fmt"
	"log/slog"

	"ilim-checkout/internal/adapters/appconfig"
	"ilim-checkout/internal/adapters/backend"
	"ilim-checkout/internal/adapters/credentials"
	"ilim-checkout/internal/adapters/redis"
	"ilim-checkout/internal/config"
	"ilim-checkout/internal/ports"
)

const sessionScanCount = 100

// Bootstrap connects the adapters described by cfg and returns the wired App.
// The caller must Close it.
func Bootstrap(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*App, error) {
	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		return nil, err
	}

	logger.Debug("connected to redis", "addr", cfg.Redis.Addr)

	store, writer, err := credentialStore(ctx, cfg, redisClient)
	if err != nil {
		redisClient.Close()
		return nil, err
	}

	api := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	}, logger.With("component", "backend"))

	return New(Options{
		Config:      cfg,
		Logger:      logger,
		API:         api,
		Repository:  redis.NewRepository(redisClient, cfg.Purchase.SessionTTL, cfg.Purchase.OutcomeTTL),
		Scanner:     redis.NewScanner(redisClient, sessionScanCount, logger.With("component", "scanner")),
		Policies:    appconfig.NewLoader(cfg.AppConfig, cfg.Purchase, logger.With("component", "policy_loader")),
		Credentials: store,
		Sessions:    writer,
		Closer:      redisClient,
	}), nil
}

func credentialStore(ctx context.Context, cfg *config.AppConfig, client *redis.Client) (ports.CredentialStore, ports.SessionWriter, error) {
	switch cfg.Credentials.Source {
	case config.CredentialSourceRedis:
		store := redis.NewCredentialStore(client, cfg.Credentials.Subject, cfg.Credentials.TokenTTL)
		return store, store, nil
	case config.CredentialSourceSecrets:
		store, err := credentials.NewSecretsManagerStore(ctx, cfg.Credentials.SecretName)
		if err != nil {
			return nil, nil, fmt.Errorf("create secrets manager store: %w", err)
		}
		return store, nil, nil
	case config.CredentialSourceStatic:
		return credentials.NewStatic(cfg.Credentials.Subject, cfg.Credentials.Token), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown credentials source %q", cfg.Credentials.Source)
	}
}
