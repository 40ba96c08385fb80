//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/platform/postgres"
	"github.com/phrazzld/scry-vocab/internal/store"
	"github.com/phrazzld/scry-vocab/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedCollection inserts a collection with the given terms, created one
// minute apart in order.
func seedCollection(t *testing.T, tx *sql.Tx, terms ...string) (uuid.UUID, []uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	collectionID := uuid.New()
	_, err := tx.ExecContext(ctx, `INSERT INTO collections (id, name) VALUES ($1, $2)`, collectionID, "spanish")
	require.NoError(t, err)

	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	ids := make([]uuid.UUID, len(terms))
	for i, term := range terms {
		ids[i] = uuid.New()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO items (id, collection_id, term, meaning, created_at) VALUES ($1, $2, $3, $4, $5)`,
			ids[i], collectionID, term, "meaning of "+term, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}
	return collectionID, ids
}

func TestPostgresRemoteStore_ReviewRoundTrip(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		remote := postgres.NewPostgresRemoteStore(tx, nil)
		collectionID, itemIDs := seedCollection(t, tx, "uno", "dos", "tres")
		userID := uuid.New()

		items, err := remote.FetchItemsForCollection(ctx, collectionID)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "uno", items[0].Term)

		reviewedAt := time.Date(2026, 1, 11, 10, 0, 0, 0, time.UTC)
		commit := store.ReviewCommit{
			UserID:       userID,
			ItemID:       itemIDs[0],
			CollectionID: collectionID,
			State:        domain.Schedule{Repetitions: 1, EaseFactor: 2.5, IntervalDays: 1},
			DueAt:        reviewedAt.AddDate(0, 0, 1),
			ReviewedAt:   reviewedAt,
			WasCorrect:   true,
		}
		require.NoError(t, remote.CommitReviewAtomic(ctx, commit))

		commit.State = domain.Schedule{Repetitions: 0, EaseFactor: 1.96, IntervalDays: 1}
		commit.WasCorrect = false
		require.NoError(t, remote.CommitReviewAtomic(ctx, commit))

		states, err := remote.FetchLearningStates(ctx, collectionID, userID)
		require.NoError(t, err)
		require.Len(t, states, 1)
		state := states[itemIDs[0]]
		assert.Equal(t, 2, state.TotalReviews)
		assert.Equal(t, 1, state.CorrectReviews)
		assert.InDelta(t, 1.96, state.EaseFactor, 1e-9)

		// Non-atomic path: upsert, then counters.
		fallback := store.ReviewCommit{
			UserID:       userID,
			ItemID:       itemIDs[1],
			CollectionID: collectionID,
			State:        domain.Schedule{Repetitions: 1, EaseFactor: 2.6, IntervalDays: 1},
			DueAt:        reviewedAt.AddDate(0, 0, 1),
			ReviewedAt:   reviewedAt,
			WasCorrect:   true,
		}
		require.NoError(t, remote.UpsertLearningState(ctx, fallback))
		require.NoError(t, remote.IncrementReviewCounters(ctx, userID, itemIDs[1], true))

		all, err := remote.FetchUserLearningStates(ctx, userID)
		require.NoError(t, err)
		require.Len(t, all, 2)

		err = remote.IncrementReviewCounters(ctx, userID, itemIDs[2], true)
		assert.ErrorIs(t, err, store.ErrLearningStateNotFound)
	})
}

func TestPostgresRemoteStore_ReviewLogs(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		remote := postgres.NewPostgresRemoteStore(tx, nil)
		collectionID, itemIDs := seedCollection(t, tx, "gato")
		userID := uuid.New()

		reviewedAt := time.Date(2026, 2, 3, 18, 30, 0, 0, time.UTC)
		entry := domain.NewReviewLogEntry(userID, itemIDs[0], collectionID, domain.QualityGood,
			nil, domain.Schedule{Repetitions: 1, EaseFactor: 2.5, IntervalDays: 1}, reviewedAt)

		require.NoError(t, remote.AppendReviewLog(ctx, entry))

		err := remote.AppendReviewLog(ctx, entry)
		assert.ErrorIs(t, err, store.ErrDuplicate, "replaying a log entry is reported as a duplicate")

		earlier := domain.NewReviewLogEntry(userID, itemIDs[0], collectionID, domain.QualityWrong,
			nil, domain.Schedule{Repetitions: 0, EaseFactor: 2.5, IntervalDays: 1}, reviewedAt.AddDate(0, -2, 0))
		require.NoError(t, remote.AppendReviewLog(ctx, earlier))

		times, err := remote.FetchReviewTimes(ctx, userID)
		require.NoError(t, err)
		require.Len(t, times, 2)
		assert.True(t, times[0].Equal(reviewedAt))
		assert.True(t, times[1].Equal(earlier.ReviewedAt))
	})
}
