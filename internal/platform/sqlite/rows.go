package sqlite

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/store"
)

// Timestamps are stored as Unix nanoseconds and read back in UTC.

func toNanos(t time.Time) int64 {
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

type itemRow struct {
	ID            string `db:"id"`
	CollectionID  string `db:"collection_id"`
	Term          string `db:"term"`
	Meaning       string `db:"meaning"`
	Pronunciation string `db:"pronunciation"`
	Example       string `db:"example"`
	CreatedAt     int64  `db:"created_at"`
	Position      int    `db:"position"`
	CachedAt      int64  `db:"cached_at"`
}

func (r itemRow) entry() (store.Entry[domain.Item], error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return store.Entry[domain.Item]{}, err
	}
	collectionID, err := uuid.Parse(r.CollectionID)
	if err != nil {
		return store.Entry[domain.Item]{}, err
	}
	return store.Entry[domain.Item]{
		Value: domain.Item{
			ID:            id,
			CollectionID:  collectionID,
			Term:          r.Term,
			Meaning:       r.Meaning,
			Pronunciation: r.Pronunciation,
			Example:       r.Example,
			CreatedAt:     fromNanos(r.CreatedAt),
		},
		CachedAt: fromNanos(r.CachedAt),
	}, nil
}

type stateRow struct {
	UserID         string        `db:"user_id"`
	ItemID         string        `db:"item_id"`
	CollectionID   string        `db:"collection_id"`
	Repetitions    int           `db:"repetitions"`
	EaseFactor     float64       `db:"ease_factor"`
	IntervalDays   int           `db:"interval_days"`
	DueAt          int64         `db:"due_at"`
	LastReviewedAt sql.NullInt64 `db:"last_reviewed_at"`
	TotalReviews   int           `db:"total_reviews"`
	CorrectReviews int           `db:"correct_reviews"`
	CachedAt       int64         `db:"cached_at"`
}

func newStateRow(s domain.LearningState, cachedAt time.Time) stateRow {
	row := stateRow{
		UserID:         s.UserID.String(),
		ItemID:         s.ItemID.String(),
		CollectionID:   s.CollectionID.String(),
		Repetitions:    s.Repetitions,
		EaseFactor:     s.EaseFactor,
		IntervalDays:   s.IntervalDays,
		DueAt:          toNanos(s.DueAt),
		TotalReviews:   s.TotalReviews,
		CorrectReviews: s.CorrectReviews,
		CachedAt:       toNanos(cachedAt),
	}
	if s.LastReviewedAt != nil {
		row.LastReviewedAt = sql.NullInt64{Int64: toNanos(*s.LastReviewedAt), Valid: true}
	}
	return row
}

func (r stateRow) entry() (store.Entry[domain.LearningState], error) {
	var ids [3]uuid.UUID
	for i, raw := range []string{r.UserID, r.ItemID, r.CollectionID} {
		id, err := uuid.Parse(raw)
		if err != nil {
			return store.Entry[domain.LearningState]{}, err
		}
		ids[i] = id
	}

	state := domain.LearningState{
		UserID:         ids[0],
		ItemID:         ids[1],
		CollectionID:   ids[2],
		Repetitions:    r.Repetitions,
		EaseFactor:     r.EaseFactor,
		IntervalDays:   r.IntervalDays,
		DueAt:          fromNanos(r.DueAt),
		TotalReviews:   r.TotalReviews,
		CorrectReviews: r.CorrectReviews,
	}
	if r.LastReviewedAt.Valid {
		reviewed := fromNanos(r.LastReviewedAt.Int64)
		state.LastReviewedAt = &reviewed
	}
	return store.Entry[domain.LearningState]{Value: state, CachedAt: fromNanos(r.CachedAt)}, nil
}

type statsRow struct {
	UserID       string `db:"user_id"`
	CollectionID string `db:"collection_id"`
	Total        int    `db:"total"`
	Learned      int    `db:"learned"`
	Due          int    `db:"due"`
	NewItems     int    `db:"new_items"`
	CachedAt     int64  `db:"cached_at"`
}

func (r statsRow) entry() (store.Entry[domain.CollectionStats], error) {
	collectionID, err := uuid.Parse(r.CollectionID)
	if err != nil {
		return store.Entry[domain.CollectionStats]{}, err
	}
	return store.Entry[domain.CollectionStats]{
		Value: domain.CollectionStats{
			CollectionID: collectionID,
			Total:        r.Total,
			Learned:      r.Learned,
			Due:          r.Due,
			New:          r.NewItems,
		},
		CachedAt: fromNanos(r.CachedAt),
	}, nil
}

// Partition names recorded in cache_metadata.
const (
	partitionItems  = "items"
	partitionStates = "states"
	partitionStats  = "stats"
)

type metadataRow struct {
	Key          string `db:"key"`
	Partition    string `db:"partition"`
	UserID       string `db:"user_id"`
	CollectionID string `db:"collection_id"`
	LastSync     int64  `db:"last_sync"`
	Version      int    `db:"version"`
}

// partitionFromKey rebuilds the partition a cache key names. It covers
// partitions that hold rows but were never stamped.
func partitionFromKey(key string) (metadataRow, bool) {
	partition, rest, ok := strings.Cut(key, "-")
	if !ok {
		return metadataRow{}, false
	}

	switch partition {
	case partitionItems:
		collectionID, err := uuid.Parse(rest)
		if err != nil {
			return metadataRow{}, false
		}
		return metadataRow{
			Key:          store.ItemsKey(collectionID),
			Partition:    partitionItems,
			CollectionID: collectionID.String(),
		}, true
	case partitionStates, partitionStats:
		// Both IDs are canonical 36-character UUIDs joined by a dash.
		if len(rest) != 73 || rest[36] != '-' {
			return metadataRow{}, false
		}
		userID, err := uuid.Parse(rest[:36])
		if err != nil {
			return metadataRow{}, false
		}
		collectionID, err := uuid.Parse(rest[37:])
		if err != nil {
			return metadataRow{}, false
		}
		return metadataRow{
			Key:          key,
			Partition:    partition,
			UserID:       userID.String(),
			CollectionID: collectionID.String(),
		}, true
	}
	return metadataRow{}, false
}
