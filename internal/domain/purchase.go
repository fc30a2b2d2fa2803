package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Defaults for a purchase session.
const (
	DefaultMaxAttempts  = 30
	DefaultPollInterval = 5000 * time.Millisecond
)

// PurchaseStatus is the backend's view of a purchase.
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "PENDING"
	PurchaseStatusSucceeded PurchaseStatus = "SUCCEEDED"
	PurchaseStatusFailed    PurchaseStatus = "FAILED"
	PurchaseStatusUnknown   PurchaseStatus = "UNKNOWN"
)

// ParsePurchaseStatus maps a raw status body onto a PurchaseStatus.
// Anything unrecognised becomes PurchaseStatusUnknown.
func ParsePurchaseStatus(raw string) PurchaseStatus {
	switch PurchaseStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case PurchaseStatusPending:
		return PurchaseStatusPending
	case PurchaseStatusSucceeded:
		return PurchaseStatusSucceeded
	case PurchaseStatusFailed:
		return PurchaseStatusFailed
	default:
		return PurchaseStatusUnknown
	}
}

func (s PurchaseStatus) String() string {
	return string(s)
}

// PollState is the state of a payment status poller.
type PollState string

const (
	PollStatePolling   PollState = "polling"
	PollStateSucceeded PollState = "succeeded"
	PollStateExhausted PollState = "exhausted"
	PollStateErrored   PollState = "errored"
	PollStateCanceled  PollState = "canceled"
)

// IsTerminal reports whether no further automatic transition can happen.
func (s PollState) IsTerminal() bool {
	return s != PollStatePolling
}

func (s PollState) String() string {
	return string(s)
}

// PurchaseSession tracks one purchase attempt from initiation to its terminal state.
type PurchaseSession struct {
	ID           string         `json:"id"`
	CourseID     string         `json:"course_id"`
	Subject      string         `json:"subject,omitempty"`
	AccessToken  string         `json:"-"`
	RedirectURL  string         `json:"redirect_url"`
	AttemptCount int            `json:"attempt_count"`
	MaxAttempts  int            `json:"max_attempts"`
	PollInterval time.Duration  `json:"poll_interval"`
	State        PollState      `json:"state"`
	LastStatus   PurchaseStatus `json:"last_status,omitempty"`
	Error        string         `json:"error,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewPurchaseSession creates a session in the Polling state.
func NewPurchaseSession(auth AuthSession, courseID string, maxAttempts int, pollInterval time.Duration) *PurchaseSession {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	now := time.Now()
	return &PurchaseSession{
		ID:           uuid.NewString(),
		CourseID:     courseID,
		Subject:      auth.Subject,
		AccessToken:  auth.AccessToken,
		MaxAttempts:  maxAttempts,
		PollInterval: pollInterval,
		State:        PollStatePolling,
		StartedAt:    now,
		UpdatedAt:    now,
	}
}

// RecordAttempt counts one non-terminal status check and reports whether the bound is reached.
// It is a no-op once the session is terminal.
func (s *PurchaseSession) RecordAttempt(status PurchaseStatus) (exhausted bool) {
	if s.State.IsTerminal() {
		return false
	}
	s.AttemptCount++
	s.LastStatus = status
	s.UpdatedAt = time.Now()
	return s.AttemptCount >= s.MaxAttempts
}

// Transition moves the session into a terminal state. Only the first call has an effect.
func (s *PurchaseSession) Transition(state PollState, cause error) bool {
	if s.State.IsTerminal() || !state.IsTerminal() {
		return false
	}
	s.State = state
	if cause != nil {
		s.Error = cause.Error()
	}
	s.UpdatedAt = time.Now()
	return true
}

// Outcome is the single terminal result delivered for a session.
type Outcome struct {
	SessionID   string    `json:"session_id"`
	CourseID    string    `json:"course_id"`
	RedirectURL string    `json:"redirect_url,omitempty"`
	State       PollState `json:"state"`
	Attempts    int       `json:"attempts"`
	Err         error     `json:"-"`
}

// NewOutcome snapshots a terminal session.
func NewOutcome(s *PurchaseSession, err error) Outcome {
	return Outcome{
		SessionID:   s.ID,
		CourseID:    s.CourseID,
		RedirectURL: s.RedirectURL,
		State:       s.State,
		Attempts:    s.AttemptCount,
		Err:         err,
	}
}

// Succeeded reports whether the purchase was confirmed.
func (o Outcome) Succeeded() bool {
	return o.State == PollStateSucceeded
}
