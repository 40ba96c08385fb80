package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Scheduling defaults shared by new learning states.
const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
)

// Quality is a recall rating from 0 (complete blackout) to 5 (perfect recall).
type Quality int

// Quality values.
const (
	QualityBlackout  Quality = 0
	QualityWrong     Quality = 1
	QualityWrongEasy Quality = 2
	QualityHard      Quality = 3
	QualityGood      Quality = 4
	QualityEasy      Quality = 5
)

// PassingQuality is the lowest rating that counts as a correct recall.
const PassingQuality = QualityHard

// IsValid reports whether q is within the 0-5 domain.
func (q Quality) IsValid() bool {
	return q >= QualityBlackout && q <= QualityEasy
}

// IsCorrect reports whether q counts as a successful recall.
func (q Quality) IsCorrect() bool {
	return q >= PassingQuality
}

// Common validation errors for LearningState
var (
	ErrEmptyStateUserID  = errors.New("learning state user ID cannot be empty")
	ErrEmptyStateItemID  = errors.New("learning state item ID cannot be empty")
	ErrInvalidInterval   = errors.New("interval must be greater than or equal to 0")
	ErrInvalidEaseFactor = errors.New("ease factor must be at least 1.3")
	ErrInvalidCounters   = errors.New("review counters must be non-negative")
)

// Schedule is the part of a learning state the SM-2 transition reads and writes.
type Schedule struct {
	Repetitions  int     `json:"repetitions"`
	EaseFactor   float64 `json:"ease_factor"`
	IntervalDays int     `json:"interval_days"`
}

// LearningState tracks one user's progress on one item. A row exists only
// once the item has been reviewed at least once; new items have no state.
type LearningState struct {
	UserID         uuid.UUID  `json:"user_id"`
	ItemID         uuid.UUID  `json:"item_id"`
	CollectionID   uuid.UUID  `json:"collection_id"`
	Repetitions    int        `json:"repetitions"`   // consecutive correct recalls
	EaseFactor     float64    `json:"ease_factor"`   // never below MinEaseFactor
	IntervalDays   int        `json:"interval_days"` // days until next review
	DueAt          time.Time  `json:"due_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	TotalReviews   int        `json:"total_reviews"`
	CorrectReviews int        `json:"correct_reviews"`
}

// NewLearningState returns the state an item starts from before its first review.
// It is due immediately.
func NewLearningState(userID, itemID, collectionID uuid.UUID, now time.Time) LearningState {
	return LearningState{
		UserID:       userID,
		ItemID:       itemID,
		CollectionID: collectionID,
		EaseFactor:   DefaultEaseFactor,
		DueAt:        now,
	}
}

// Schedule returns the scheduling fields of s.
func (s LearningState) Schedule() Schedule {
	return Schedule{
		Repetitions:  s.Repetitions,
		EaseFactor:   s.EaseFactor,
		IntervalDays: s.IntervalDays,
	}
}

// IsDue reports whether the state is eligible for review at now.
func (s LearningState) IsDue(now time.Time) bool {
	return !s.DueAt.After(now)
}

// Validate checks if the LearningState has valid data.
func (s LearningState) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrEmptyStateUserID
	}

	if s.ItemID == uuid.Nil {
		return ErrEmptyStateItemID
	}

	if s.IntervalDays < 0 {
		return ErrInvalidInterval
	}

	if s.EaseFactor < MinEaseFactor {
		return ErrInvalidEaseFactor
	}

	if s.TotalReviews < 0 || s.CorrectReviews < 0 {
		return ErrInvalidCounters
	}

	return nil
}
