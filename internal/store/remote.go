package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
)

// ReviewCommit is everything the remote store needs to persist one rating.
type ReviewCommit struct {
	UserID       uuid.UUID
	ItemID       uuid.UUID
	CollectionID uuid.UUID
	State        domain.Schedule
	DueAt        time.Time
	ReviewedAt   time.Time
	WasCorrect   bool
}

// AggregateCounts are the raw per-collection counts the remote store computes.
type AggregateCounts struct {
	Total   int
	Learned int
	Due     int
}

// RemoteStore is the backend of record for items, learning states and review logs.
// Version: 1.0
type RemoteStore interface {
	// FetchItemsForCollection returns every item of a collection in creation order.
	FetchItemsForCollection(ctx context.Context, collectionID uuid.UUID) ([]domain.Item, error)

	// FetchLearningStates returns the user's learning states for a collection,
	// keyed by item ID. Items without a state are absent from the map.
	FetchLearningStates(
		ctx context.Context,
		collectionID, userID uuid.UUID,
	) (map[uuid.UUID]domain.LearningState, error)

	// CommitReviewAtomic updates the learning state and its review counters in
	// one server-side operation. Returns ErrUnsupportedOperation when the
	// backend does not provide the procedure.
	CommitReviewAtomic(ctx context.Context, commit ReviewCommit) error

	// UpsertLearningState writes the scheduling fields of a learning state,
	// creating the row if needed. Unique on (user, item).
	UpsertLearningState(ctx context.Context, commit ReviewCommit) error

	// IncrementReviewCounters bumps total reviews and, when wasCorrect, correct reviews.
	IncrementReviewCounters(ctx context.Context, userID, itemID uuid.UUID, wasCorrect bool) error

	// AppendReviewLog inserts an immutable review log entry.
	AppendReviewLog(ctx context.Context, entry domain.ReviewLogEntry) error

	// FetchAggregateCounts returns total, learned and due counts for each collection.
	FetchAggregateCounts(
		ctx context.Context,
		collectionIDs []uuid.UUID,
		userID uuid.UUID,
		now time.Time,
	) (map[uuid.UUID]AggregateCounts, error)

	// FetchUserLearningStates returns every learning state of a user across collections.
	FetchUserLearningStates(ctx context.Context, userID uuid.UUID) ([]domain.LearningState, error)

	// FetchReviewLogs returns the user's review logs reviewed at or after since,
	// oldest first.
	FetchReviewLogs(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.ReviewLogEntry, error)

	// FetchReviewTimes returns when each of the user's reviews happened, newest first.
	FetchReviewTimes(ctx context.Context, userID uuid.UUID) ([]time.Time, error)
}
