package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Validate validates the application configuration.
func (c *AppConfig) Validate() error {
	var errs []error

	if c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis address is required"))
	}

	if c.Redis.DialTimeout <= 0 {
		errs = append(errs, errors.New("redis dial timeout must be positive"))
	}

	if c.Backend.BaseURL == "" {
		errs = append(errs, errors.New("backend base url is required"))
	} else if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend base url %q is not an absolute url", c.Backend.BaseURL))
	}

	if c.Backend.Timeout <= 0 {
		errs = append(errs, errors.New("backend timeout must be positive"))
	}

	if c.Purchase.PollInterval < 0 {
		errs = append(errs, errors.New("purchase poll interval must not be negative"))
	} else if c.Purchase.PollInterval > 0 && c.Purchase.PollInterval < time.Millisecond {
		errs = append(errs, errors.New("purchase poll interval must be at least 1ms"))
	}

	if c.Purchase.MaxAttempts < 0 {
		errs = append(errs, errors.New("purchase max attempts must not be negative"))
	}

	if c.Purchase.SessionTTL <= 0 {
		errs = append(errs, errors.New("purchase session TTL must be positive"))
	}

	switch c.Credentials.Source {
	case CredentialSourceRedis, CredentialSourceStatic:
	case CredentialSourceSecrets:
		if c.Credentials.SecretName == "" {
			errs = append(errs, errors.New("credentials secret name is required for secretsmanager"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown credentials source %q", c.Credentials.Source))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %w", errors.Join(errs...))
	}

	return nil
}

// ValidatePolicy validates a purchase policy document.
func ValidatePolicy(p *PurchasePolicy) error {
	var errs []error

	if p.Policy.ID == "" {
		errs = append(errs, errors.New("policy.id is required"))
	}

	if p.Polling.Interval.Milliseconds <= 0 {
		errs = append(errs, errors.New("polling.interval.milliseconds must be positive"))
	}

	if p.Polling.MaxAttempts <= 0 {
		errs = append(errs, errors.New("polling.max_attempts must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("purchase policy validation failed: %w", errors.Join(errs...))
	}

	return nil
}
