package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ilim-checkout/internal/config"
	"ilim-checkout/internal/domain"
	"ilim-checkout/internal/logging"
)

// fakeAPI replays a scripted sequence of statuses. Once the script runs out it keeps
// answering PENDING.
type fakeAPI struct {
	mu          sync.Mutex
	redirectURL string
	initErr     error
	statuses    []domain.PurchaseStatus
	failAt      int // 1-based check number that fails, 0 for never
	failErr     error
	delay       time.Duration

	initiations int
	checks      int
	inFlight    int
	maxInFlight int
	tokens      []string
}

func (f *fakeAPI) InitiatePurchase(ctx context.Context, auth domain.AuthSession, courseID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initiations++
	f.tokens = append(f.tokens, auth.AccessToken)
	if f.initErr != nil {
		return "", f.initErr
	}
	return f.redirectURL, nil
}

func (f *fakeAPI) CheckPurchase(ctx context.Context, auth domain.AuthSession, courseID string) (domain.PurchaseStatus, error) {
	f.mu.Lock()
	f.checks++
	n := f.checks
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.tokens = append(f.tokens, auth.AccessToken)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if f.failAt > 0 && n == f.failAt {
		return "", f.failErr
	}
	if n <= len(f.statuses) {
		return f.statuses[n-1], nil
	}
	return domain.PurchaseStatusPending, nil
}

func (f *fakeAPI) checkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks
}

func (f *fakeAPI) peakInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

type navEvent struct {
	kind     string
	courseID string
	message  string
	cause    error
}

type fakeNavigator struct {
	mu     sync.Mutex
	events []navEvent
}

func (n *fakeNavigator) OpenExternal(ctx context.Context, url string) error {
	n.record(navEvent{kind: "open", message: url})
	return nil
}

func (n *fakeNavigator) ShowPurchased(ctx context.Context, courseID string) error {
	n.record(navEvent{kind: "purchased", courseID: courseID})
	return nil
}

func (n *fakeNavigator) ShowError(ctx context.Context, courseID, message string, cause error) error {
	n.record(navEvent{kind: "error", courseID: courseID, message: message, cause: cause})
	return nil
}

func (n *fakeNavigator) record(e navEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *fakeNavigator) count(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.kind == kind {
			c++
		}
	}
	return c
}

func (n *fakeNavigator) last(kind string) (navEvent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].kind == kind {
			return n.events[i], true
		}
	}
	return navEvent{}, false
}

// memRepository keeps snapshots in memory and remembers every saved attempt count.
type memRepository struct {
	mu       sync.Mutex
	sessions map[string]domain.PurchaseSession
	active   map[string]string
	claimed  map[string]bool
	history  []int
	claimErr error
}

func newMemRepository() *memRepository {
	return &memRepository{
		sessions: make(map[string]domain.PurchaseSession),
		active:   make(map[string]string),
		claimed:  make(map[string]bool),
	}
}

func (r *memRepository) SaveSession(ctx context.Context, session *domain.PurchaseSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	r.history = append(r.history, session.AttemptCount)
	return nil
}

func (r *memRepository) ActivateSession(ctx context.Context, session *domain.PurchaseSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[session.Subject+"/"+session.CourseID] = session.ID
	return nil
}

func (r *memRepository) ActiveSessionID(ctx context.Context, subject, courseID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.active[subject+"/"+courseID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return id, nil
}

func (r *memRepository) GetSession(ctx context.Context, subject, courseID string) (*domain.PurchaseSession, error) {
	id, err := r.ActiveSessionID(ctx, subject, courseID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

// byID returns the stored snapshot of a session.
func (r *memRepository) byID(id string) domain.PurchaseSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

func (r *memRepository) ClaimOutcome(ctx context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claimErr != nil {
		return false, r.claimErr
	}
	if r.claimed[sessionID] {
		return false, nil
	}
	r.claimed[sessionID] = true
	return true, nil
}

func (r *memRepository) ScanSessions(ctx context.Context) ([]*domain.PurchaseSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.PurchaseSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, &s)
	}
	return out, nil
}

type fakePolicies struct {
	policy *config.PurchasePolicy
	err    error
}

func (f *fakePolicies) LoadPolicy(ctx context.Context) (*config.PurchasePolicy, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.policy, nil
}

func testPolicy(interval time.Duration, maxAttempts int) *config.PurchasePolicy {
	return config.DefaultPolicy().WithOverrides(config.PurchaseConfig{
		PollInterval: interval,
		MaxAttempts:  maxAttempts,
	})
}

func newTestSession(maxAttempts int) *domain.PurchaseSession {
	auth := domain.AuthSession{Subject: "student", AccessToken: "abc"}
	return domain.NewPurchaseSession(auth, "42", maxAttempts, time.Millisecond)
}

func pending(n int) []domain.PurchaseStatus {
	out := make([]domain.PurchaseStatus, n)
	for i := range out {
		out[i] = domain.PurchaseStatusPending
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

var errNetwork = errors.New("connection refused")

var testLogger = logging.Discard()
