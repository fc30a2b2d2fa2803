package appconfig

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ilim-checkout/internal/config"
	"ilim-checkout/internal/logging"
)

const testPolicyYAML = `
policy:
  id: fast
  name: Fast confirmation
polling:
  interval:
    milliseconds: 2000
  max_attempts: 10
navigation:
  purchased_view: /me/courses
messages:
  timeout: Still waiting for the payment provider.
`

func TestLoader_DefaultPolicyWithoutEndpoint(t *testing.T) {
	loader := NewLoader(config.AppConfigSettings{Profile: "purchase-policy"}, config.PurchaseConfig{}, logging.Discard())

	policy, err := loader.LoadPolicy(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if policy.Polling.MaxAttempts != 30 {
		t.Errorf("expected 30 attempts, got %d", policy.Polling.MaxAttempts)
	}
	if policy.Polling.Interval.ToDuration() != 5*time.Second {
		t.Errorf("expected 5s interval, got %s", policy.Polling.Interval.ToDuration())
	}
}

func TestLoader_FetchesParsesAndCaches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/purchase-policy.yaml" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(testPolicyYAML))
	}))
	defer srv.Close()

	loader := NewLoader(config.AppConfigSettings{Endpoint: srv.URL, Profile: "purchase-policy"}, config.PurchaseConfig{}, logging.Discard())

	for i := 0; i < 2; i++ {
		policy, err := loader.LoadPolicy(context.Background())
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if policy.Policy.ID != "fast" {
			t.Errorf("expected policy fast, got %s", policy.Policy.ID)
		}
		if policy.Polling.MaxAttempts != 10 {
			t.Errorf("expected 10 attempts, got %d", policy.Polling.MaxAttempts)
		}
		if policy.Navigation.PurchasedView != "/me/courses" {
			t.Errorf("unexpected purchased view %s", policy.Navigation.PurchasedView)
		}
		if policy.Messages.Error == "" {
			t.Error("expected the default error message to be filled in")
		}
	}

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected one fetch, got %d", got)
	}
}

func TestLoader_AgentPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/applications/ilim/environments/prod/configurations/purchase-policy" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(testPolicyYAML))
	}))
	defer srv.Close()

	settings := config.AppConfigSettings{
		Endpoint:      srv.URL,
		ApplicationID: "ilim",
		EnvironmentID: "prod",
		Profile:       "purchase-policy",
	}
	loader := NewLoader(settings, config.PurchaseConfig{}, logging.Discard())

	if _, err := loader.LoadPolicy(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestLoader_OverridesWin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testPolicyYAML))
	}))
	defer srv.Close()

	overrides := config.PurchaseConfig{PollInterval: 250 * time.Millisecond, MaxAttempts: 3}
	loader := NewLoader(config.AppConfigSettings{Endpoint: srv.URL, Profile: "purchase-policy"}, overrides, logging.Discard())

	policy, err := loader.LoadPolicy(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if policy.Polling.MaxAttempts != 3 {
		t.Errorf("expected override of 3 attempts, got %d", policy.Polling.MaxAttempts)
	}
	if policy.Polling.Interval.ToDuration() != 250*time.Millisecond {
		t.Errorf("expected override interval, got %s", policy.Polling.Interval.ToDuration())
	}
}

func TestLoader_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	loader := NewLoader(config.AppConfigSettings{Endpoint: srv.URL, Profile: "purchase-policy"}, config.PurchaseConfig{}, logging.Discard())

	if _, err := loader.LoadPolicy(context.Background()); err == nil {
		t.Fatal("expected an error for a missing profile")
	}
}

func TestParse_Invalid(t *testing.T) {
	doc := []byte("policy:\n  id: broken\npolling:\n  max_attempts: 0\n")

	if _, err := Parse(doc); err == nil {
		t.Fatal("expected validation to fail")
	}
}
