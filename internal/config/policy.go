package config

import (
	"time"

	"ilim-checkout/internal/domain"
)

// PurchasePolicy is the purchase workflow document served by AppConfig.
type PurchasePolicy struct {
	Policy     PolicyInfo      `yaml:"policy"`
	Polling    PollingSettings `yaml:"polling"`
	Navigation NavigationPaths `yaml:"navigation"`
	Messages   OutcomeMessages `yaml:"messages"`
}

// PolicyInfo identifies a policy document.
type PolicyInfo struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// PollingSettings bounds the payment status poller.
type PollingSettings struct {
	Interval    Duration `yaml:"interval"`
	MaxAttempts int      `yaml:"max_attempts"`
}

// NavigationPaths are frontend routes used by the outcome handler.
type NavigationPaths struct {
	PurchasedView string `yaml:"purchased_view"`
	CourseView    string `yaml:"course_view"`
}

// OutcomeMessages are shown to the user for non-successful outcomes.
type OutcomeMessages struct {
	Timeout string `yaml:"timeout"`
	Error   string `yaml:"error"`
}

// Duration represents a duration in milliseconds for YAML configuration.
type Duration struct {
	Milliseconds int `yaml:"milliseconds"`
}

// ToDuration converts to a standard time.Duration.
func (d Duration) ToDuration() time.Duration {
	return time.Duration(d.Milliseconds) * time.Millisecond
}

// DefaultPolicy is used when no AppConfig endpoint is configured.
func DefaultPolicy() *PurchasePolicy {
	return &PurchasePolicy{
		Policy: PolicyInfo{ID: "default", Name: "Default purchase policy"},
		Polling: PollingSettings{
			Interval:    Duration{Milliseconds: int(domain.DefaultPollInterval / time.Millisecond)},
			MaxAttempts: domain.DefaultMaxAttempts,
		},
		Navigation: NavigationPaths{
			PurchasedView: "/student/purchased-courses",
			CourseView:    "/courses/%s",
		},
		Messages: OutcomeMessages{
			Timeout: "We could not confirm your payment yet. It may still be processing, please check again in a few minutes.",
			Error:   "Something went wrong while confirming your payment.",
		},
	}
}

// WithOverrides returns a copy of the policy with the non-zero purchase settings applied.
func (p *PurchasePolicy) WithOverrides(cfg PurchaseConfig) *PurchasePolicy {
	out := *p
	if cfg.PollInterval > 0 {
		out.Polling.Interval = Duration{Milliseconds: int(cfg.PollInterval / time.Millisecond)}
	}
	if cfg.MaxAttempts > 0 {
		out.Polling.MaxAttempts = cfg.MaxAttempts
	}
	return &out
}

// ApplyDefaults fills navigation paths and messages left empty in the document.
func (p *PurchasePolicy) ApplyDefaults() {
	def := DefaultPolicy()
	if p.Navigation.PurchasedView == "" {
		p.Navigation.PurchasedView = def.Navigation.PurchasedView
	}
	if p.Navigation.CourseView == "" {
		p.Navigation.CourseView = def.Navigation.CourseView
	}
	if p.Messages.Timeout == "" {
		p.Messages.Timeout = def.Messages.Timeout
	}
	if p.Messages.Error == "" {
		p.Messages.Error = def.Messages.Error
	}
}
