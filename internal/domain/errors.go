package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	ErrNotFound          = errors.New("not found")
	ErrMissingCredential = errors.New("missing access token")
	ErrInvalidCourseID   = errors.New("course id is required")
	ErrSuperseded        = errors.New("purchase session superseded")
	ErrOutcomeDelivered  = errors.New("outcome already delivered")
)

// AuthenticationError means the credential is missing or was rejected. Never retried.
type AuthenticationError struct {
	StatusCode int
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authentication failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// PurchaseInitiationError means the backend refused to create the purchase intent.
type PurchaseInitiationError struct {
	CourseID   string
	StatusCode int
	Message    string
	Err        error
}

func (e *PurchaseInitiationError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("purchase course %s: %s (status %d)", e.CourseID, e.Message, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("purchase course %s: %v", e.CourseID, e.Err)
	default:
		return fmt.Sprintf("purchase course %s: unexpected status %d", e.CourseID, e.StatusCode)
	}
}

func (e *PurchaseInitiationError) Unwrap() error {
	return e.Err
}

// TransportError is a failed status check. It ends the polling session.
type TransportError struct {
	CourseID   string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("check purchase %s: %v", e.CourseID, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("check purchase %s: %s (status %d)", e.CourseID, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("check purchase %s: unexpected status %d", e.CourseID, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TimeoutError means the attempt bound ran out while the purchase was still pending.
// The purchase may still complete on the backend.
type TimeoutError struct {
	CourseID string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("purchase of course %s not confirmed after %d attempts", e.CourseID, e.Attempts)
}

// PurchaseError wraps a failure inside the checkout workflow.
type PurchaseError struct {
	SessionID string
	CourseID  string
	Op        string // operation that failed
	Err       error  // underlying error
}

func (e *PurchaseError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("%s: course=%s session=%s: %v", e.Op, e.CourseID, e.SessionID, e.Err)
	}
	return fmt.Sprintf("%s: course=%s: %v", e.Op, e.CourseID, e.Err)
}

func (e *PurchaseError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration-related error.
type ConfigError struct {
	ConfigName string
	Field      string
	Err        error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config %s: field %s: %v", e.ConfigName, e.Field, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.ConfigName, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
