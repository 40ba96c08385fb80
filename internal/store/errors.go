package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// Read paths of the review core translate it into an absent value instead of
	// surfacing it.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrRemoteUnavailable is returned for transient network or backend failures.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// ErrUnsupportedOperation is returned when the backend lacks the atomic
	// review commit procedure. Callers switch to the two-step write path.
	ErrUnsupportedOperation = errors.New("operation not supported by remote store")

	// ErrCacheUnavailable is returned when local durable storage cannot be used.
	// It never reaches callers of the review core; cache reads degrade to absent.
	ErrCacheUnavailable = errors.New("local cache unavailable")

	// Entity-specific "not found" errors

	// ErrItemNotFound indicates that the requested item does not exist in the store.
	ErrItemNotFound = fmt.Errorf("%w: item", ErrNotFound)

	// ErrLearningStateNotFound indicates that no learning state exists for a (user, item) pair.
	ErrLearningStateNotFound = fmt.Errorf("%w: learning state", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrReviewLogExists indicates that a review log entry with the same ID was already appended.
	ErrReviewLogExists = fmt.Errorf("%w: review log", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsTransientError reports whether a retry or fallback could succeed later.
func IsTransientError(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable) || errors.Is(err, ErrCacheUnavailable)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "item", "learning_state")
	Operation string // The operation that failed (e.g., "fetch", "upsert")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
