package session

import (
	"errors"
	"fmt"
)

// Common error types for review sessions
var (
	// ErrSessionNotFound indicates that no live session has the requested ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed indicates that the session was torn down.
	ErrSessionClosed = errors.New("session closed")

	// ErrNotActive indicates an operation that requires an active session.
	ErrNotActive = errors.New("session is not active")

	// ErrAlreadyStarted indicates Start was called twice; use Restart instead.
	ErrAlreadyStarted = errors.New("session already started")
)

// SessionError wraps errors from a session with the operation that failed.
// Consumers differentiate failures with errors.Is and errors.As.
type SessionError struct {
	// Operation is the operation that failed (e.g., "start", "rate")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for SessionError.
func (e *SessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewStartError returns a new SessionError for the start operation.
func NewStartError(message string, err error) *SessionError {
	return &SessionError{Operation: "start", Message: message, Err: err}
}

// NewRateError returns a new SessionError for the rate operation.
func NewRateError(message string, err error) *SessionError {
	return &SessionError{Operation: "rate", Message: message, Err: err}
}
