package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/store"
	"github.com/stretchr/testify/mock"
)

// TestifyMockRemoteStore is a mock of store.RemoteStore interface for use with testify/mock
type TestifyMockRemoteStore struct {
	mock.Mock
}

// Ensure TestifyMockRemoteStore implements store.RemoteStore
var _ store.RemoteStore = (*TestifyMockRemoteStore)(nil)

// FetchItemsForCollection is a mock implementation of store.RemoteStore.FetchItemsForCollection
func (m *TestifyMockRemoteStore) FetchItemsForCollection(
	ctx context.Context,
	collectionID uuid.UUID,
) ([]domain.Item, error) {
	args := m.Called(ctx, collectionID)
	if items, ok := args.Get(0).([]domain.Item); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

// FetchLearningStates is a mock implementation of store.RemoteStore.FetchLearningStates
func (m *TestifyMockRemoteStore) FetchLearningStates(
	ctx context.Context,
	collectionID, userID uuid.UUID,
) (map[uuid.UUID]domain.LearningState, error) {
	args := m.Called(ctx, collectionID, userID)
	if states, ok := args.Get(0).(map[uuid.UUID]domain.LearningState); ok {
		return states, args.Error(1)
	}
	return nil, args.Error(1)
}

// CommitReviewAtomic is a mock implementation of store.RemoteStore.CommitReviewAtomic
func (m *TestifyMockRemoteStore) CommitReviewAtomic(ctx context.Context, commit store.ReviewCommit) error {
	args := m.Called(ctx, commit)
	return args.Error(0)
}

// UpsertLearningState is a mock implementation of store.RemoteStore.UpsertLearningState
func (m *TestifyMockRemoteStore) UpsertLearningState(ctx context.Context, commit store.ReviewCommit) error {
	args := m.Called(ctx, commit)
	return args.Error(0)
}

// IncrementReviewCounters is a mock implementation of store.RemoteStore.IncrementReviewCounters
func (m *TestifyMockRemoteStore) IncrementReviewCounters(
	ctx context.Context,
	userID, itemID uuid.UUID,
	wasCorrect bool,
) error {
	args := m.Called(ctx, userID, itemID, wasCorrect)
	return args.Error(0)
}

// AppendReviewLog is a mock implementation of store.RemoteStore.AppendReviewLog
func (m *TestifyMockRemoteStore) AppendReviewLog(ctx context.Context, entry domain.ReviewLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// FetchAggregateCounts is a mock implementation of store.RemoteStore.FetchAggregateCounts
func (m *TestifyMockRemoteStore) FetchAggregateCounts(
	ctx context.Context,
	collectionIDs []uuid.UUID,
	userID uuid.UUID,
	now time.Time,
) (map[uuid.UUID]store.AggregateCounts, error) {
	args := m.Called(ctx, collectionIDs, userID, now)
	if counts, ok := args.Get(0).(map[uuid.UUID]store.AggregateCounts); ok {
		return counts, args.Error(1)
	}
	return nil, args.Error(1)
}

// FetchUserLearningStates is a mock implementation of store.RemoteStore.FetchUserLearningStates
func (m *TestifyMockRemoteStore) FetchUserLearningStates(
	ctx context.Context,
	userID uuid.UUID,
) ([]domain.LearningState, error) {
	args := m.Called(ctx, userID)
	if states, ok := args.Get(0).([]domain.LearningState); ok {
		return states, args.Error(1)
	}
	return nil, args.Error(1)
}

// FetchReviewLogs is a mock implementation of store.RemoteStore.FetchReviewLogs
func (m *TestifyMockRemoteStore) FetchReviewLogs(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) ([]domain.ReviewLogEntry, error) {
	args := m.Called(ctx, userID, since)
	if logs, ok := args.Get(0).([]domain.ReviewLogEntry); ok {
		return logs, args.Error(1)
	}
	return nil, args.Error(1)
}

// FetchReviewTimes is a mock implementation of store.RemoteStore.FetchReviewTimes
func (m *TestifyMockRemoteStore) FetchReviewTimes(ctx context.Context, userID uuid.UUID) ([]time.Time, error) {
	args := m.Called(ctx, userID)
	if times, ok := args.Get(0).([]time.Time); ok {
		return times, args.Error(1)
	}
	return nil, args.Error(1)
}
