package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
)

// Entry is one cached value with the time it was written locally.
type Entry[T any] struct {
	Value    T
	CachedAt time.Time
}

// Snapshot is the content of one cache partition. A nil *Snapshot means the
// partition was never synced; a non-nil snapshot with no entries means it was
// synced and is empty.
type Snapshot[T any] struct {
	Entries  []Entry[T]
	LastSync time.Time
}

// Values returns the cached values without their timestamps.
func (s *Snapshot[T]) Values() []T {
	if s == nil {
		return nil
	}
	values := make([]T, len(s.Entries))
	for i, e := range s.Entries {
		values[i] = e.Value
	}
	return values
}

// Age reports how long ago the partition was synced, relative to now.
func (s *Snapshot[T]) Age(now time.Time) time.Duration {
	return now.Sub(s.LastSync)
}

// Cache keys of the metadata partition.

// ItemsKey identifies the cached content of a collection.
func ItemsKey(collectionID uuid.UUID) string {
	return fmt.Sprintf("items-%s", collectionID)
}

// StatesKey identifies a user's cached learning states for a collection.
func StatesKey(userID, collectionID uuid.UUID) string {
	return fmt.Sprintf("states-%s-%s", userID, collectionID)
}

// StatsKey identifies a user's cached aggregate stats for a collection.
func StatsKey(userID, collectionID uuid.UUID) string {
	return fmt.Sprintf("stats-%s-%s", userID, collectionID)
}

// LocalCache is a durable, partitioned cache in front of the RemoteStore.
//
// Implementations never return storage failures: reads degrade to an absent
// snapshot and staleness checks report stale. Writes replace a whole partition
// and stamp its sync time; UpsertState changes one row and leaves the sync
// time untouched.
type LocalCache interface {
	// ReadItems returns the cached items of a collection in creation order.
	ReadItems(ctx context.Context, collectionID uuid.UUID) *Snapshot[domain.Item]

	// WriteItems replaces the cached items of a collection.
	WriteItems(ctx context.Context, collectionID uuid.UUID, items []domain.Item)

	// ReadStates returns the user's cached learning states for a collection.
	ReadStates(ctx context.Context, userID, collectionID uuid.UUID) *Snapshot[domain.LearningState]

	// WriteStates replaces the user's cached learning states for a collection.
	WriteStates(ctx context.Context, userID, collectionID uuid.UUID, states []domain.LearningState)

	// UpsertState applies an optimistic single-row update.
	UpsertState(ctx context.Context, state domain.LearningState)

	// ReadStats returns the user's cached stats snapshot for a collection.
	ReadStats(ctx context.Context, userID, collectionID uuid.UUID) *Snapshot[domain.CollectionStats]

	// WriteStats replaces the user's cached stats for each collection in stats.
	WriteStats(ctx context.Context, userID uuid.UUID, stats []domain.CollectionStats)

	// Invalidate removes a partition and its metadata so the next read treats it as stale.
	Invalidate(ctx context.Context, key string)

	// IsStale reports whether the partition was synced more than maxAge ago.
	// A partition that was never synced is stale.
	IsStale(ctx context.Context, key string, maxAge time.Duration) bool

	// Clear drops every partition.
	Clear(ctx context.Context)
}
