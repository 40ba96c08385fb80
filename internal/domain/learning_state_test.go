package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestQuality(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		quality Quality
		valid   bool
		correct bool
	}{
		{-1, false, false},
		{QualityBlackout, true, false},
		{QualityWrongEasy, true, false},
		{QualityHard, true, true},
		{QualityEasy, true, true},
		{6, false, true},
	}

	for _, tc := range testCases {
		if got := tc.quality.IsValid(); got != tc.valid {
			t.Errorf("Quality(%d).IsValid() = %v, want %v", tc.quality, got, tc.valid)
		}
		if got := tc.quality.IsCorrect(); got != tc.correct {
			t.Errorf("Quality(%d).IsCorrect() = %v, want %v", tc.quality, got, tc.correct)
		}
	}
}

func TestNewLearningState(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	state := NewLearningState(uuid.New(), uuid.New(), uuid.New(), now)

	if state.EaseFactor != DefaultEaseFactor {
		t.Errorf("Expected ease factor %f, got %f", DefaultEaseFactor, state.EaseFactor)
	}

	if state.Repetitions != 0 || state.IntervalDays != 0 {
		t.Errorf("Expected zero repetitions and interval, got %d and %d", state.Repetitions, state.IntervalDays)
	}

	if !state.IsDue(now) {
		t.Error("Expected new state to be due immediately")
	}

	if state.LastReviewedAt != nil {
		t.Error("Expected nil LastReviewedAt")
	}

	if err := state.Validate(); err != nil {
		t.Errorf("Expected valid state, got %v", err)
	}
}

func TestLearningStateValidate(t *testing.T) {
	t.Parallel()
	valid := NewLearningState(uuid.New(), uuid.New(), uuid.New(), time.Now())

	testCases := []struct {
		name   string
		mutate func(*LearningState)
		want   error
	}{
		{"missing user", func(s *LearningState) { s.UserID = uuid.Nil }, ErrEmptyStateUserID},
		{"missing item", func(s *LearningState) { s.ItemID = uuid.Nil }, ErrEmptyStateItemID},
		{"negative interval", func(s *LearningState) { s.IntervalDays = -1 }, ErrInvalidInterval},
		{"ease below floor", func(s *LearningState) { s.EaseFactor = 1.29 }, ErrInvalidEaseFactor},
		{"negative counters", func(s *LearningState) { s.CorrectReviews = -1 }, ErrInvalidCounters},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			tc.mutate(&s)
			if err := s.Validate(); err != tc.want {
				t.Errorf("Expected error %v, got %v", tc.want, err)
			}
		})
	}
}

func TestReviewLogEntryFirstLearned(t *testing.T) {
	t.Parallel()
	now := time.Now()
	after := Schedule{Repetitions: 1, EaseFactor: 2.5, IntervalDays: 1}

	fresh := NewReviewLogEntry(uuid.New(), uuid.New(), uuid.New(), QualityGood, nil, after, now)
	if !fresh.FirstLearned() {
		t.Error("Expected correct rating without prior state to count as first learned")
	}
	if fresh.EaseFactorBefore != nil || fresh.IntervalDaysBefore != nil {
		t.Error("Expected nil before values for a new item")
	}

	before := Schedule{Repetitions: 2, EaseFactor: 2.6, IntervalDays: 6}
	repeat := NewReviewLogEntry(uuid.New(), uuid.New(), uuid.New(), QualityGood, &before, after, now)
	if repeat.FirstLearned() {
		t.Error("Expected review with prior interval not to count as first learned")
	}
	if *repeat.IntervalDaysBefore != 6 {
		t.Errorf("Expected interval before 6, got %d", *repeat.IntervalDaysBefore)
	}

	failed := NewReviewLogEntry(uuid.New(), uuid.New(), uuid.New(), QualityWrong, nil, after, now)
	if failed.FirstLearned() {
		t.Error("Expected incorrect rating not to count as first learned")
	}
}
