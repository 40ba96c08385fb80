package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "generic error", err: errors.New("some error"), expected: false},
		{name: "ErrNotFound", err: ErrNotFound, expected: true},
		{name: "wrapped ErrNotFound", err: fmt.Errorf("lookup: %w", ErrNotFound), expected: true},
		{name: "ErrItemNotFound", err: ErrItemNotFound, expected: true},
		{name: "ErrLearningStateNotFound", err: ErrLearningStateNotFound, expected: true},
		{
			name:     "StoreError wrapping not found",
			err:      NewStoreError("item", "fetch", "no rows", ErrItemNotFound),
			expected: true,
		},
		{name: "duplicate is not not-found", err: ErrReviewLogExists, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNotFoundError(tt.err))
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, IsDuplicateError(ErrReviewLogExists))
	assert.True(t, IsDuplicateError(fmt.Errorf("insert: %w", ErrDuplicate)))
	assert.False(t, IsDuplicateError(ErrNotFound))
	assert.False(t, IsDuplicateError(nil))
}

func TestIsTransientError(t *testing.T) {
	assert.True(t, IsTransientError(fmt.Errorf("fetch: %w", ErrRemoteUnavailable)))
	assert.True(t, IsTransientError(ErrCacheUnavailable))
	assert.False(t, IsTransientError(ErrUnsupportedOperation))
	assert.False(t, IsTransientError(nil))
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection reset")

	err := NewStoreError("learning_state", "upsert", "write failed", cause)
	assert.Equal(t, "upsert operation on learning_state failed: write failed: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	var storeErr *StoreError
	assert.True(t, errors.As(fmt.Errorf("outer: %w", err), &storeErr))
	assert.Equal(t, "learning_state", storeErr.Entity)

	bare := NewStoreError("item", "fetch", "empty id", nil)
	assert.Equal(t, "fetch operation on item failed: empty id", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
