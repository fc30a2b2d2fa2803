package appconfig

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"ilim-checkout/internal/config"
)

// Loader implements ports.PolicyLoader using AWS AppConfig (agent or mock).
type Loader struct {
	httpClient *http.Client
	settings   config.AppConfigSettings
	overrides  config.PurchaseConfig
	logger     *slog.Logger

	mu     sync.RWMutex
	cached *config.PurchasePolicy
}

// NewLoader creates a new AppConfig policy loader.
func NewLoader(settings config.AppConfigSettings, overrides config.PurchaseConfig, logger *slog.Logger) *Loader {
	return &Loader{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		settings:  settings,
		overrides: overrides,
		logger:    logger,
	}
}

// LoadPolicy returns the purchase policy. Without an endpoint the default policy is used.
// Environment overrides are applied on top of whatever was loaded.
func (l *Loader) LoadPolicy(ctx context.Context) (*config.PurchasePolicy, error) {
	l.mu.RLock()
	if l.cached != nil {
		cached := l.cached
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil {
		return l.cached, nil
	}

	policy := config.DefaultPolicy()
	if l.settings.Endpoint != "" {
		data, err := l.loadProfile(ctx)
		if err != nil {
			return nil, fmt.Errorf("load purchase policy: %w", err)
		}

		policy, err = Parse(data)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("loaded purchase policy", "policy_id", policy.Policy.ID)
	}

	l.cached = policy.WithOverrides(l.overrides)
	return l.cached, nil
}

// Parse decodes and validates a policy document.
func Parse(data []byte) (*config.PurchasePolicy, error) {
	var policy config.PurchasePolicy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("parse purchase policy: %w", err)
	}

	if err := config.ValidatePolicy(&policy); err != nil {
		return nil, err
	}

	policy.ApplyDefaults()
	return &policy, nil
}

// profileURL builds the AppConfig agent URL, or the flat mock URL when no application is set.
func (l *Loader) profileURL() string {
	endpoint := strings.TrimRight(l.settings.Endpoint, "/")
	if l.settings.ApplicationID != "" && l.settings.EnvironmentID != "" {
		return fmt.Sprintf("%s/applications/%s/environments/%s/configurations/%s",
			endpoint, l.settings.ApplicationID, l.settings.EnvironmentID, l.settings.Profile)
	}
	return fmt.Sprintf("%s/%s.yaml", endpoint, l.settings.Profile)
}

// loadProfile fetches the configuration profile.
func (l *Loader) loadProfile(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.profileURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch config: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			l.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("config not found: %s (status %d)", l.settings.Profile, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
