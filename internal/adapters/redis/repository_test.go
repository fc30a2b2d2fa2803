package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"ilim-checkout/internal/config"
	"ilim-checkout/internal/domain"
	"ilim-checkout/internal/logging"
)

// getTestClient creates a Redis client for testing.
// Skips the test if Redis is not available.
func getTestClient(t *testing.T) *Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client, err := NewClient(config.RedisConfig{
		Addr:         addr,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           15, // Use a separate DB for tests
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     5,
		MinIdleConns: 1,
	})
	if err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}

	return client
}

// cleanupSession removes the snapshot and the active pointer of a session.
func cleanupSession(ctx context.Context, client *Client, session *domain.PurchaseSession) {
	_ = client.Del(ctx,
		fmt.Sprintf(KeyPatternPurchaseSession, session.ID),
		fmt.Sprintf(KeyPatternActiveSession, session.Subject, session.CourseID),
	)
}

func TestRepository_SaveAndGetSession(t *testing.T) {
	client := getTestClient(t)
	defer client.Close()

	repo := NewRepository(client, time.Hour, time.Hour)
	ctx := context.Background()

	session := domain.NewPurchaseSession(domain.AuthSession{Subject: "student", AccessToken: "secret-token"}, "test-course-1", 30, 5*time.Second)
	session.RedirectURL = "https://pay.example/test-course-1"
	session.RecordAttempt(domain.PurchaseStatusPending)
	defer cleanupSession(ctx, client, session)

	if err := repo.SaveSession(ctx, session); err != nil {
		t.Fatalf("failed to save session: %v", err)
	}
	if err := repo.ActivateSession(ctx, session); err != nil {
		t.Fatalf("failed to activate session: %v", err)
	}

	retrieved, err := repo.GetSession(ctx, "student", session.CourseID)
	if err != nil {
		t.Fatalf("failed to get session: %v", err)
	}

	if retrieved.ID != session.ID {
		t.Errorf("ID mismatch: got %s, want %s", retrieved.ID, session.ID)
	}
	if retrieved.AttemptCount != 1 {
		t.Errorf("AttemptCount mismatch: got %d, want 1", retrieved.AttemptCount)
	}
	if retrieved.State != domain.PollStatePolling {
		t.Errorf("State mismatch: got %s, want polling", retrieved.State)
	}
	if retrieved.AccessToken != "" {
		t.Error("access token must not be persisted in the snapshot")
	}
}

func TestRepository_SessionsAreScopedBySubject(t *testing.T) {
	client := getTestClient(t)
	defer client.Close()

	repo := NewRepository(client, time.Hour, time.Hour)
	ctx := context.Background()

	alice := domain.NewPurchaseSession(domain.AuthSession{Subject: "test-alice", AccessToken: "a"}, "test-course-shared", 30, time.Second)
	bob := domain.NewPurchaseSession(domain.AuthSession{Subject: "test-bob", AccessToken: "b"}, "test-course-shared", 30, time.Second)
	for _, s := range []*domain.PurchaseSession{alice, bob} {
		defer cleanupSession(ctx, client, s)
		if err := repo.SaveSession(ctx, s); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}
		if err := repo.ActivateSession(ctx, s); err != nil {
			t.Fatalf("failed to activate session: %v", err)
		}
	}

	got, err := repo.GetSession(ctx, "test-alice", "test-course-shared")
	if err != nil {
		t.Fatalf("failed to get session: %v", err)
	}
	if got.ID != alice.ID {
		t.Errorf("expected alice's session %s, got %s", alice.ID, got.ID)
	}

	if _, err := repo.GetSession(ctx, "test-mallory", "test-course-shared"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for another subject, got %v", err)
	}
}

func TestRepository_ActivateSupersedes(t *testing.T) {
	client := getTestClient(t)
	defer client.Close()

	repo := NewRepository(client, time.Hour, time.Hour)
	ctx := context.Background()

	auth := domain.AuthSession{Subject: "test-student", AccessToken: "abc"}
	first := domain.NewPurchaseSession(auth, "test-course-supersede", 30, time.Second)
	second := domain.NewPurchaseSession(auth, "test-course-supersede", 30, time.Second)
	defer cleanupSession(ctx, client, first)
	defer cleanupSession(ctx, client, second)

	_ = repo.ActivateSession(ctx, first)
	_ = repo.ActivateSession(ctx, second)

	id, err := repo.ActiveSessionID(ctx, auth.Subject, "test-course-supersede")
	if err != nil {
		t.Fatalf("failed to read active session: %v", err)
	}
	if id != second.ID {
		t.Errorf("expected the newer session %s to be active, got %s", second.ID, id)
	}
}

func TestRepository_GetSession_NotFound(t *testing.T) {
	client := getTestClient(t)
	defer client.Close()

	repo := NewRepository(client, time.Hour, time.Hour)

	_, err := repo.GetSession(context.Background(), "student", "nonexistent-course")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_TerminalSnapshotExpiresSooner(t *testing.T) {
	client := getTestClient(t)
	defer client.Close()

	repo := NewRepository(client, 24*time.Hour, time.Hour)
	ctx := context.Background()

	session := domain.NewPurchaseSession(domain.AuthSession{AccessToken: "abc"}, "test-course-ttl", 30, time.Second)
	session.Transition(domain.PollStateSucceeded, nil)
	defer cleanupSession(ctx, client, session)

	if err := repo.SaveSession(ctx, session); err != nil {
		t.Fatalf("failed to save session: %v", err)
	}

	ttl, err := client.Native().TTL(ctx, fmt.Sprintf(KeyPatternPurchaseSession, session.ID)).Result()
	if err != nil {
		t.Fatalf("failed to read ttl: %v", err)
	}
	if ttl > terminalSnapshotTTL {
		t.Errorf("expected ttl <= %s, got %s", terminalSnapshotTTL, ttl)
	}
}

func TestRepository_ClaimOutcomeOnce(t *testing.T) {
	client := getTestClient(t)
	defer client.Close()

	repo := NewRepository(client, time.Hour, time.Hour)
	ctx := context.Background()

	sessionID := "test-session-claim"
	_ = client.Del(ctx, "purchase:test-session-claim:outcome")
	defer client.Del(ctx, "purchase:test-session-claim:outcome")

	first, err := repo.ClaimOutcome(ctx, sessionID)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	second, err := repo.ClaimOutcome(ctx, sessionID)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}

	if !first || second {
		t.Errorf("expected only the first claim to succeed, got first=%v second=%v", first, second)
	}
}

func TestScanner_ScanSessions(t *testing.T) {
	client := getTestClient(t)
	defer client.Close()

	repo := NewRepository(client, time.Hour, time.Hour)
	scanner := NewScanner(client, 100, logging.Discard())
	ctx := context.Background()

	courses := []string{"test-scan-a", "test-scan-b"}
	for _, courseID := range courses {
		session := domain.NewPurchaseSession(domain.AuthSession{AccessToken: "abc"}, courseID, 30, time.Second)
		if err := repo.SaveSession(ctx, session); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}
		defer cleanupSession(ctx, client, session)
	}

	sessions, err := scanner.ScanSessions(ctx)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	found := make(map[string]bool)
	for _, s := range sessions {
		found[s.CourseID] = true
	}
	for _, courseID := range courses {
		if !found[courseID] {
			t.Errorf("expected session for %s in scan results", courseID)
		}
	}
}

func TestCredentialStore_SignInLoadSignOut(t *testing.T) {
	client := getTestClient(t)
	defer client.Close()

	store := NewCredentialStore(client, "test-student", time.Hour)
	ctx := context.Background()

	if err := store.SignIn(ctx, domain.AuthSession{AccessToken: "abc"}); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	auth, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if auth.AccessToken != "abc" || auth.Subject != "test-student" {
		t.Errorf("unexpected session %+v", auth)
	}

	if err := store.SignOut(ctx, ""); err != nil {
		t.Fatalf("sign out: %v", err)
	}

	_, err = store.Load(ctx)
	var authErr *domain.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Errorf("expected AuthenticationError after sign out, got %v", err)
	}
}
