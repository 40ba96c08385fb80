package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/platform/logger"
	"github.com/phrazzld/scry-vocab/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock is a settable clock for staleness tests.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCache(t *testing.T) (*LocalCache, *sqlx.DB, *testClock) {
	t.Helper()
	db, err := Open(context.Background(), MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log, _ := logger.NewTestLogger(t)
	clock := &testClock{now: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)}
	return NewLocalCache(db, log, WithClock(clock.Now)), db, clock
}

func testItems(collectionID uuid.UUID, base time.Time) []domain.Item {
	return []domain.Item{
		{ID: uuid.New(), CollectionID: collectionID, Term: "hola", Meaning: "hello", CreatedAt: base},
		{ID: uuid.New(), CollectionID: collectionID, Term: "adiós", Meaning: "goodbye",
			Pronunciation: "a-DYOS", CreatedAt: base.Add(time.Minute)},
		{ID: uuid.New(), CollectionID: collectionID, Term: "gracias", Meaning: "thanks",
			Example: "Muchas gracias.", CreatedAt: base.Add(2 * time.Minute)},
	}
}

func TestNewLocalCache_NilDB(t *testing.T) {
	assert.Panics(t, func() { NewLocalCache(nil, nil) })
}

func TestLocalCache_Items(t *testing.T) {
	ctx := context.Background()
	cache, _, clock := newTestCache(t)
	collectionID := uuid.New()

	t.Run("never synced is nil", func(t *testing.T) {
		assert.Nil(t, cache.ReadItems(ctx, collectionID))
	})

	t.Run("write then read preserves order and timestamps", func(t *testing.T) {
		items := testItems(collectionID, clock.now.Add(-time.Hour))
		cache.WriteItems(ctx, collectionID, items)

		snap := cache.ReadItems(ctx, collectionID)
		require.NotNil(t, snap)
		assert.Equal(t, items, snap.Values())
		assert.Equal(t, clock.now, snap.LastSync)
		for _, e := range snap.Entries {
			assert.Equal(t, clock.now, e.CachedAt)
		}
	})

	t.Run("write replaces the whole partition", func(t *testing.T) {
		replacement := testItems(collectionID, clock.now)[:1]
		cache.WriteItems(ctx, collectionID, replacement)

		snap := cache.ReadItems(ctx, collectionID)
		require.NotNil(t, snap)
		assert.Equal(t, replacement, snap.Values())
	})

	t.Run("synced but empty is distinct from never synced", func(t *testing.T) {
		other := uuid.New()
		cache.WriteItems(ctx, other, nil)

		snap := cache.ReadItems(ctx, other)
		require.NotNil(t, snap)
		assert.Empty(t, snap.Entries)
	})
}

func TestLocalCache_States(t *testing.T) {
	ctx := context.Background()
	cache, _, clock := newTestCache(t)
	userID, collectionID := uuid.New(), uuid.New()

	reviewed := clock.now.Add(-24 * time.Hour)
	first := domain.NewLearningState(userID, uuid.New(), collectionID, clock.now)
	second := domain.LearningState{
		UserID:         userID,
		ItemID:         uuid.New(),
		CollectionID:   collectionID,
		Repetitions:    2,
		EaseFactor:     2.36,
		IntervalDays:   6,
		DueAt:          clock.now.Add(5 * 24 * time.Hour),
		LastReviewedAt: &reviewed,
		TotalReviews:   3,
		CorrectReviews: 2,
	}

	cache.WriteStates(ctx, userID, collectionID, []domain.LearningState{second, first})

	snap := cache.ReadStates(ctx, userID, collectionID)
	require.NotNil(t, snap)
	assert.Equal(t, []domain.LearningState{first, second}, snap.Values(), "states are ordered by due date")

	t.Run("other users do not see the partition", func(t *testing.T) {
		assert.Nil(t, cache.ReadStates(ctx, uuid.New(), collectionID))
	})

	t.Run("upsert updates a row without stamping the partition", func(t *testing.T) {
		clock.Advance(10 * time.Minute)

		updated := first
		updated.Repetitions = 1
		updated.IntervalDays = 1
		updated.DueAt = clock.now.Add(24 * time.Hour)
		cache.UpsertState(ctx, updated)

		snap := cache.ReadStates(ctx, userID, collectionID)
		require.NotNil(t, snap)
		assert.Equal(t, clock.now.Add(-10*time.Minute), snap.LastSync)
		assert.Contains(t, snap.Values(), updated)
		assert.True(t, cache.IsStale(ctx, store.StatesKey(userID, collectionID), 5*time.Minute))
	})

	t.Run("upsert into an unsynced partition leaves it unsynced", func(t *testing.T) {
		otherCollection := uuid.New()
		cache.UpsertState(ctx, domain.NewLearningState(userID, uuid.New(), otherCollection, clock.now))
		assert.Nil(t, cache.ReadStates(ctx, userID, otherCollection))
	})
}

func TestLocalCache_Stats(t *testing.T) {
	ctx := context.Background()
	cache, _, clock := newTestCache(t)
	userID := uuid.New()
	a, b := uuid.New(), uuid.New()

	cache.WriteStats(ctx, userID, []domain.CollectionStats{
		domain.NewCollectionStats(a, 10, 4, 2),
		domain.NewCollectionStats(b, 0, 0, 0),
	})

	snapA := cache.ReadStats(ctx, userID, a)
	require.NotNil(t, snapA)
	require.Len(t, snapA.Entries, 1)
	assert.Equal(t, domain.CollectionStats{CollectionID: a, Total: 10, Learned: 4, Due: 2, New: 6},
		snapA.Entries[0].Value)
	assert.Equal(t, clock.now, snapA.LastSync)

	snapB := cache.ReadStats(ctx, userID, b)
	require.NotNil(t, snapB)
	assert.Equal(t, 0, snapB.Entries[0].Value.Total)

	assert.Nil(t, cache.ReadStats(ctx, uuid.New(), a))
}

func TestLocalCache_IsStale(t *testing.T) {
	ctx := context.Background()
	userID, collectionID := uuid.New(), uuid.New()
	key := store.StatsKey(userID, collectionID)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    bool
	}{
		{"just written", 0, false},
		{"just inside the window", 59999 * time.Millisecond, false},
		{"exactly at the window", 60 * time.Second, false},
		{"just past the window", 60001 * time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, _, clock := newTestCache(t)
			cache.WriteStats(ctx, userID, []domain.CollectionStats{domain.NewCollectionStats(collectionID, 1, 0, 0)})
			clock.Advance(tt.elapsed)
			assert.Equal(t, tt.want, cache.IsStale(ctx, key, 60*time.Second))
		})
	}

	t.Run("never synced is stale", func(t *testing.T) {
		cache, _, _ := newTestCache(t)
		assert.True(t, cache.IsStale(ctx, key, time.Hour))
	})
}

func TestLocalCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	cache, _, clock := newTestCache(t)
	userID, collectionID := uuid.New(), uuid.New()

	cache.WriteItems(ctx, collectionID, testItems(collectionID, clock.now))
	cache.WriteStates(ctx, userID, collectionID,
		[]domain.LearningState{domain.NewLearningState(userID, uuid.New(), collectionID, clock.now)})
	cache.WriteStats(ctx, userID, []domain.CollectionStats{domain.NewCollectionStats(collectionID, 3, 0, 0)})

	cache.Invalidate(ctx, store.StatsKey(userID, collectionID))

	assert.Nil(t, cache.ReadStats(ctx, userID, collectionID))
	assert.True(t, cache.IsStale(ctx, store.StatsKey(userID, collectionID), time.Hour))
	assert.NotNil(t, cache.ReadItems(ctx, collectionID), "other partitions are untouched")
	assert.NotNil(t, cache.ReadStates(ctx, userID, collectionID))

	cache.Invalidate(ctx, store.ItemsKey(collectionID))
	assert.Nil(t, cache.ReadItems(ctx, collectionID))

	// Unknown keys are a no-op.
	cache.Invalidate(ctx, "items-unknown")
}

func TestLocalCache_InvalidateUnsyncedPartition(t *testing.T) {
	ctx := context.Background()
	cache, db, clock := newTestCache(t)
	userID, collectionID := uuid.New(), uuid.New()

	cache.UpsertState(ctx, domain.NewLearningState(userID, uuid.New(), collectionID, clock.now))
	require.Nil(t, cache.ReadStates(ctx, userID, collectionID))

	countRows := func() int {
		var n int
		require.NoError(t, db.GetContext(ctx, &n,
			`SELECT COUNT(*) FROM learning_states WHERE user_id = ? AND collection_id = ?`,
			userID.String(), collectionID.String()))
		return n
	}
	require.Equal(t, 1, countRows())

	cache.Invalidate(ctx, store.StatesKey(userID, collectionID))

	assert.Zero(t, countRows(), "rows written without a sync are dropped too")
}

func TestPartitionFromKey(t *testing.T) {
	userID, collectionID := uuid.New(), uuid.New()

	tests := []struct {
		name   string
		key    string
		want   metadataRow
		wantOK bool
	}{
		{
			name:   "items",
			key:    store.ItemsKey(collectionID),
			want:   metadataRow{Key: store.ItemsKey(collectionID), Partition: partitionItems, CollectionID: collectionID.String()},
			wantOK: true,
		},
		{
			name: "states",
			key:  store.StatesKey(userID, collectionID),
			want: metadataRow{Key: store.StatesKey(userID, collectionID), Partition: partitionStates,
				UserID: userID.String(), CollectionID: collectionID.String()},
			wantOK: true,
		},
		{
			name: "stats",
			key:  store.StatsKey(userID, collectionID),
			want: metadataRow{Key: store.StatsKey(userID, collectionID), Partition: partitionStats,
				UserID: userID.String(), CollectionID: collectionID.String()},
			wantOK: true,
		},
		{name: "unknown partition", key: "logs-" + collectionID.String()},
		{name: "malformed id", key: "items-unknown"},
		{name: "states with one id", key: "states-" + collectionID.String()},
		{name: "no separator", key: "items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := partitionFromKey(tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocalCache_Clear(t *testing.T) {
	ctx := context.Background()
	cache, _, clock := newTestCache(t)
	userID, collectionID := uuid.New(), uuid.New()

	cache.WriteItems(ctx, collectionID, testItems(collectionID, clock.now))
	cache.WriteStats(ctx, userID, []domain.CollectionStats{domain.NewCollectionStats(collectionID, 3, 0, 0)})

	cache.Clear(ctx)

	assert.Nil(t, cache.ReadItems(ctx, collectionID))
	assert.Nil(t, cache.ReadStats(ctx, userID, collectionID))
}

func TestLocalCache_PurgeOlderThan(t *testing.T) {
	ctx := context.Background()
	cache, _, clock := newTestCache(t)
	userID := uuid.New()
	oldCollection, freshCollection := uuid.New(), uuid.New()

	cache.WriteItems(ctx, oldCollection, testItems(oldCollection, clock.now))
	cache.WriteStates(ctx, userID, oldCollection,
		[]domain.LearningState{domain.NewLearningState(userID, uuid.New(), oldCollection, clock.now)})

	clock.Advance(48 * time.Hour)
	cache.WriteItems(ctx, freshCollection, testItems(freshCollection, clock.now))

	purged, err := cache.PurgeOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, purged)

	assert.Nil(t, cache.ReadItems(ctx, oldCollection))
	assert.Nil(t, cache.ReadStates(ctx, userID, oldCollection))
	assert.NotNil(t, cache.ReadItems(ctx, freshCollection))

	purged, err = cache.PurgeOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, purged)
}

func TestLocalCache_DegradesWhenUnavailable(t *testing.T) {
	ctx := context.Background()
	cache, db, clock := newTestCache(t)
	log, buf := logger.NewTestLogger(t)
	cache.logger = log
	collectionID := uuid.New()

	cache.WriteItems(ctx, collectionID, testItems(collectionID, clock.now))
	require.NoError(t, db.Close())

	assert.Nil(t, cache.ReadItems(ctx, collectionID))
	assert.True(t, cache.IsStale(ctx, store.ItemsKey(collectionID), time.Hour))
	assert.NotPanics(t, func() {
		cache.WriteItems(ctx, collectionID, nil)
		cache.UpsertState(ctx, domain.NewLearningState(uuid.New(), uuid.New(), collectionID, clock.now))
		cache.Invalidate(ctx, store.ItemsKey(collectionID))
		cache.Clear(ctx)
	})

	_, err := cache.PurgeOlderThan(ctx, time.Hour)
	assert.ErrorIs(t, err, store.ErrCacheUnavailable)

	logger.AssertLogContains(t, buf, "cache operation failed")
}
