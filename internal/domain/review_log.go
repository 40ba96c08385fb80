package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewLogEntry is an append-only record of a single rating event.
// Before values are nil when the item had no learning state yet.
type ReviewLogEntry struct {
	ID                 uuid.UUID `json:"id"`
	UserID             uuid.UUID `json:"user_id"`
	ItemID             uuid.UUID `json:"item_id"`
	CollectionID       uuid.UUID `json:"collection_id"`
	Quality            Quality   `json:"quality"`
	EaseFactorBefore   *float64  `json:"ease_factor_before,omitempty"`
	EaseFactorAfter    float64   `json:"ease_factor_after"`
	IntervalDaysBefore *int      `json:"interval_days_before,omitempty"`
	IntervalDaysAfter  int       `json:"interval_days_after"`
	ReviewedAt         time.Time `json:"reviewed_at"`
}

// NewReviewLogEntry builds a log entry for a transition from before to after.
// A nil before marks the first review of a new item.
func NewReviewLogEntry(
	userID, itemID, collectionID uuid.UUID,
	quality Quality,
	before *Schedule,
	after Schedule,
	reviewedAt time.Time,
) ReviewLogEntry {
	entry := ReviewLogEntry{
		ID:                uuid.New(),
		UserID:            userID,
		ItemID:            itemID,
		CollectionID:      collectionID,
		Quality:           quality,
		EaseFactorAfter:   after.EaseFactor,
		IntervalDaysAfter: after.IntervalDays,
		ReviewedAt:        reviewedAt,
	}
	if before != nil {
		ef, interval := before.EaseFactor, before.IntervalDays
		entry.EaseFactorBefore = &ef
		entry.IntervalDaysBefore = &interval
	}
	return entry
}

// FirstLearned reports whether this entry records a new item being learned:
// a correct rating with no prior interval.
func (e ReviewLogEntry) FirstLearned() bool {
	if !e.Quality.IsCorrect() {
		return false
	}
	return e.IntervalDaysBefore == nil || *e.IntervalDaysBefore == 0
}
