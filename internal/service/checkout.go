package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"ilim-checkout/internal/config"
	"ilim-checkout/internal/domain"
	"ilim-checkout/internal/ports"
)

// Checkout runs the purchase workflow: initiate, poll, deliver the outcome.
// At most one poller runs per subject and course; a new session supersedes the previous one.
// Inside one process the previous poller is awaited. Across processes the active
// session pointer in the repository stops it on its next tick.
type Checkout struct {
	initiator  *Initiator
	poller     *Poller
	outcomes   *OutcomeHandler
	repository ports.SessionRepository
	scanner    ports.SessionScanner
	policies   ports.PolicyLoader
	overrides  config.PurchaseConfig
	logger     *slog.Logger

	mu     sync.Mutex
	active map[string]*activePoll
}

type activePoll struct {
	sessionID string
	cancel    context.CancelFunc
	done      chan struct{}
}

// Handle is a running purchase session.
type Handle struct {
	SessionID   string
	CourseID    string
	RedirectURL string

	cancel  context.CancelFunc
	done    chan struct{}
	outcome domain.Outcome
}

// Done is closed once the session is terminal and its outcome was handled.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the session is terminal and returns its outcome.
func (h *Handle) Wait() domain.Outcome {
	<-h.done
	return h.outcome
}

// Cancel tears the session down and waits for its poller to stop.
func (h *Handle) Cancel() {
	h.cancel()
	<-h.done
}

// CheckoutOptions configures a Checkout.
type CheckoutOptions struct {
	API        ports.PurchaseAPI
	Navigator  ports.Navigator
	Repository ports.SessionRepository
	Scanner    ports.SessionScanner
	Policies   ports.PolicyLoader
	Overrides  config.PurchaseConfig
	Logger     *slog.Logger
}

// NewCheckout wires the workflow components.
func NewCheckout(opts CheckoutOptions) *Checkout {
	return &Checkout{
		initiator:  NewInitiator(opts.API, opts.Navigator, opts.Logger.With("component", "initiator")),
		poller:     NewPoller(opts.API, opts.Repository, opts.Logger.With("component", "poller")),
		outcomes:   NewOutcomeHandler(opts.Navigator, opts.Repository, opts.Logger.With("component", "outcome")),
		repository: opts.Repository,
		scanner:    opts.Scanner,
		policies:   opts.Policies,
		overrides:  opts.Overrides,
		logger:     opts.Logger,
		active:     make(map[string]*activePoll),
	}
}

// Purchase runs the whole workflow and blocks until the outcome is delivered.
func (c *Checkout) Purchase(ctx context.Context, auth domain.AuthSession, courseID string) (domain.Outcome, error) {
	h, err := c.Start(ctx, auth, courseID)
	if err != nil {
		return domain.Outcome{}, err
	}
	return h.Wait(), nil
}

// Start initiates the purchase and polls in the background.
// Polling stops when ctx is canceled, the session is superseded, or it reaches a terminal state.
func (c *Checkout) Start(ctx context.Context, auth domain.AuthSession, courseID string) (*Handle, error) {
	session, policy, err := c.initiate(ctx, auth, courseID)
	if err != nil {
		return nil, err
	}

	pollCtx, cancel := context.WithCancel(ctx)
	entry := &activePoll{
		sessionID: session.ID,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	key := activeKey(session.Subject, session.CourseID)
	c.supersede(key, entry)

	if err := c.persist(ctx, session); err != nil {
		c.logger.Warn("failed to persist session", "course_id", session.CourseID, "session_id", session.ID, "error", err)
	}

	h := &Handle{
		SessionID:   session.ID,
		CourseID:    session.CourseID,
		RedirectURL: session.RedirectURL,
		cancel:      cancel,
		done:        entry.done,
	}

	go func() {
		defer close(entry.done)
		defer cancel()

		outcome := c.poller.Run(pollCtx, session)
		c.release(key, entry)

		if err := c.outcomes.Deliver(ctx, policy.Messages, outcome); err != nil {
			c.logger.Warn("failed to deliver outcome", "course_id", session.CourseID, "session_id", session.ID, "error", err)
		}
		h.outcome = outcome
	}()

	return h, nil
}

// Begin initiates the purchase and records the session without polling it.
// Callers that cannot keep a goroutine alive advance the session with Step.
func (c *Checkout) Begin(ctx context.Context, auth domain.AuthSession, courseID string) (*domain.PurchaseSession, error) {
	session, _, err := c.initiate(ctx, auth, courseID)
	if err != nil {
		return nil, err
	}

	if err := c.persist(ctx, session); err != nil {
		return nil, &domain.PurchaseError{SessionID: session.ID, CourseID: session.CourseID, Op: "Begin", Err: err}
	}
	return session, nil
}

// Step advances the current session of auth's subject by at most one status check,
// made only once its poll interval has elapsed since the last update. A terminal
// transition delivers the outcome. The returned snapshot never carries the token.
func (c *Checkout) Step(ctx context.Context, auth domain.AuthSession, courseID string) (*domain.PurchaseSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	courseID = strings.TrimSpace(courseID)

	session, err := c.repository.GetSession(ctx, auth.Subject, courseID)
	if err != nil {
		return nil, &domain.PurchaseError{CourseID: courseID, Op: "GetSession", Err: err}
	}

	if session.State.IsTerminal() || time.Since(session.UpdatedAt) < session.PollInterval {
		return session, nil
	}

	session.AccessToken = auth.AccessToken
	outcome, done := c.poller.Step(ctx, session)
	session.AccessToken = ""

	if done {
		policy := c.loadPolicy(ctx)
		if err := c.outcomes.Deliver(ctx, policy.Messages, outcome); err != nil {
			c.logger.Warn("failed to deliver outcome", "course_id", courseID, "session_id", session.ID, "error", err)
		}
	}
	return session, nil
}

// Shutdown cancels every active poller and waits for them to stop.
func (c *Checkout) Shutdown() {
	c.mu.Lock()
	entries := make([]*activePoll, 0, len(c.active))
	for _, e := range c.active {
		entries = append(entries, e)
	}
	c.mu.Unlock()

	for _, e := range entries {
		e.cancel()
	}
	for _, e := range entries {
		<-e.done
	}
}

// Session returns the latest stored snapshot of the subject's session for a course.
func (c *Checkout) Session(ctx context.Context, subject, courseID string) (*domain.PurchaseSession, error) {
	session, err := c.repository.GetSession(ctx, subject, courseID)
	if err != nil {
		return nil, &domain.PurchaseError{CourseID: courseID, Op: "GetSession", Err: err}
	}
	return session, nil
}

// Sessions returns every stored snapshot.
func (c *Checkout) Sessions(ctx context.Context) ([]*domain.PurchaseSession, error) {
	return c.scanner.ScanSessions(ctx)
}

// initiate requests the payment page and builds the session. Failures are shown to the user.
func (c *Checkout) initiate(ctx context.Context, auth domain.AuthSession, courseID string) (*domain.PurchaseSession, *config.PurchasePolicy, error) {
	courseID = strings.TrimSpace(courseID)
	policy := c.loadPolicy(ctx)

	redirectURL, err := c.initiator.Initiate(ctx, auth, courseID)
	if err != nil {
		if notifyErr := c.outcomes.NotifyFailure(ctx, policy.Messages, courseID, err); notifyErr != nil {
			c.logger.Warn("failed to notify initiation failure", "course_id", courseID, "error", notifyErr)
		}
		return nil, nil, &domain.PurchaseError{CourseID: courseID, Op: "InitiatePurchase", Err: err}
	}

	session := domain.NewPurchaseSession(auth, courseID, policy.Polling.MaxAttempts, policy.Polling.Interval.ToDuration())
	session.RedirectURL = redirectURL

	c.logger.Info("purchase session started",
		"course_id", courseID,
		"session_id", session.ID,
		"max_attempts", session.MaxAttempts,
		"interval", session.PollInterval,
	)
	return session, policy, nil
}

// persist saves the first snapshot, then marks the session active so readers never
// see a pointer to a missing snapshot.
func (c *Checkout) persist(ctx context.Context, session *domain.PurchaseSession) error {
	if err := c.repository.SaveSession(ctx, session); err != nil {
		return err
	}
	return c.repository.ActivateSession(ctx, session)
}

// supersede registers entry as the active poller for key. A previous poller is
// canceled and awaited before returning, so two pollers never overlap.
func (c *Checkout) supersede(key string, entry *activePoll) {
	c.mu.Lock()
	prev := c.active[key]
	c.active[key] = entry
	c.mu.Unlock()

	if prev == nil {
		return
	}

	c.logger.Info("superseding purchase session",
		"previous_session_id", prev.sessionID,
		"session_id", entry.sessionID,
	)
	prev.cancel()
	<-prev.done
}

func (c *Checkout) release(key string, entry *activePoll) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active[key] == entry {
		delete(c.active, key)
	}
}

func (c *Checkout) loadPolicy(ctx context.Context) *config.PurchasePolicy {
	policy, err := c.policies.LoadPolicy(ctx)
	if err != nil {
		c.logger.Warn("failed to load purchase policy, using defaults", "error", err)
		return config.DefaultPolicy().WithOverrides(c.overrides)
	}
	return policy
}

func activeKey(subject, courseID string) string {
	return subject + "\x00" + courseID
}
