package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/domain/srs"
	"github.com/phrazzld/scry-vocab/internal/platform/logger"
	"github.com/phrazzld/scry-vocab/internal/service/syncer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSyncer serves fixed material and records every review.
type fakeSyncer struct {
	mu        sync.Mutex
	material  *syncer.ReviewMaterial
	loadErr   error
	recordErr error
	reviews   []syncer.Review
	loadCalls int
}

func (f *fakeSyncer) ReviewMaterial(_ context.Context, collectionID uuid.UUID) (*syncer.ReviewMaterial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	m := *f.material
	m.CollectionID = collectionID
	return &m, nil
}

func (f *fakeSyncer) RecordReview(_ context.Context, review syncer.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	f.reviews = append(f.reviews, review)
	return nil
}

func (f *fakeSyncer) Reviews() []syncer.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]syncer.Review(nil), f.reviews...)
}

type fixture struct {
	syncer       *fakeSyncer
	userID       uuid.UUID
	collectionID uuid.UUID
	items        []domain.Item
}

// newFixture builds material with due items followed by new items.
func newFixture(due, fresh int) *fixture {
	userID, collectionID := uuid.New(), uuid.New()
	items := makeItems(collectionID, due+fresh)
	states := make(map[uuid.UUID]domain.LearningState, due)
	for i := 0; i < due; i++ {
		states[items[i].ID] = reviewedState(userID, items[i], testNow.Add(-time.Duration(due-i)*time.Hour))
	}
	return &fixture{
		syncer: &fakeSyncer{material: &syncer.ReviewMaterial{
			UserID: userID,
			Items:  items,
			States: states,
		}},
		userID:       userID,
		collectionID: collectionID,
		items:        items,
	}
}

func newTestSession(t *testing.T, f *fixture, config Config) *Session {
	t.Helper()
	scheduler, err := srs.NewDefaultService()
	require.NoError(t, err)
	log, _ := logger.NewTestLogger(t)
	return New(f.collectionID, f.syncer, scheduler, config, log, WithClock(func() time.Time { return testNow }))
}

func startedSession(t *testing.T, f *fixture, config Config) *Session {
	t.Helper()
	s := newTestSession(t, f, config)
	require.NoError(t, s.Start(context.Background()))
	return s
}

func TestNew_NilDependencies(t *testing.T) {
	scheduler, err := srs.NewDefaultService()
	require.NoError(t, err)
	assert.Panics(t, func() { New(uuid.New(), nil, scheduler, DefaultConfig(), nil) })
	assert.Panics(t, func() { New(uuid.New(), &fakeSyncer{}, nil, DefaultConfig(), nil) })
}

func TestSession_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("begins loading", func(t *testing.T) {
		s := newTestSession(t, newFixture(1, 0), DefaultConfig())
		assert.Equal(t, PhaseLoading, s.Phase())
	})

	t.Run("builds the queue and becomes active", func(t *testing.T) {
		f := newFixture(3, 25)
		s := startedSession(t, f, DefaultConfig())

		assert.Equal(t, PhaseActive, s.Phase())
		assert.Equal(t, 23, s.QueueLength())
		assert.Equal(t, Stats{Total: 23, Remaining: 23}, s.Stats())
		assert.Equal(t, f.userID, s.UserID())

		card, ok := s.Current()
		require.True(t, ok)
		assert.Equal(t, f.items[0].ID, card.Item.ID, "earliest due first")
	})

	t.Run("nothing to review is empty", func(t *testing.T) {
		f := newFixture(0, 0)
		s := startedSession(t, f, DefaultConfig())
		assert.Equal(t, PhaseEmpty, s.Phase())

		_, ok := s.Current()
		assert.False(t, ok)
		_, err := s.Rate(ctx, domain.QualityGood)
		assert.ErrorIs(t, err, ErrNotActive)
	})

	t.Run("load failure is wrapped", func(t *testing.T) {
		f := newFixture(1, 0)
		f.syncer.loadErr = domain.ErrNotAuthenticated
		s := newTestSession(t, f, DefaultConfig())

		err := s.Start(ctx)
		assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
		var sessionErr *SessionError
		require.True(t, errors.As(err, &sessionErr))
		assert.Equal(t, "start", sessionErr.Operation)
		assert.Equal(t, PhaseLoading, s.Phase())
	})

	t.Run("cannot start twice", func(t *testing.T) {
		s := startedSession(t, newFixture(1, 0), DefaultConfig())
		assert.ErrorIs(t, s.Start(ctx), ErrAlreadyStarted)
	})
}

func TestSession_Rate_RequeueKeepsSessionActive(t *testing.T) {
	ctx := context.Background()
	s := startedSession(t, newFixture(1, 0), DefaultConfig())
	require.Equal(t, PhaseActive, s.Phase())

	outcome, err := s.Rate(ctx, domain.QualityWrong)
	require.NoError(t, err)
	assert.False(t, outcome.WasCorrect)
	assert.True(t, outcome.Requeued)
	assert.Equal(t, PhaseActive, outcome.Phase)
	assert.Equal(t, PhaseActive, s.Phase())

	outcome, err = s.Rate(ctx, domain.QualityGood)
	require.NoError(t, err)
	assert.True(t, outcome.WasCorrect)
	assert.Equal(t, PhaseSummary, s.Phase())

	assert.Equal(t, Stats{Total: 2, Reviewed: 2, Correct: 1, Incorrect: 1}, s.Stats())
}

func TestSession_Rate_RequeueGrowsQueueByOne(t *testing.T) {
	ctx := context.Background()
	s := startedSession(t, newFixture(2, 3), DefaultConfig())

	_, err := s.Rate(ctx, domain.QualityGood)
	require.NoError(t, err)

	beforeTotal, beforeLen := s.Stats().Total, s.QueueLength()
	current, _ := s.Current()

	_, err = s.Rate(ctx, domain.QualityBlackout)
	require.NoError(t, err)

	assert.Equal(t, beforeTotal+1, s.Stats().Total)
	assert.Equal(t, beforeLen+1, s.QueueLength())

	// The copy at the end carries the new state and is no longer new.
	s.mu.Lock()
	tail := s.queue[len(s.queue)-1]
	s.mu.Unlock()
	assert.Equal(t, current.Item.ID, tail.Item.ID)
	assert.False(t, tail.IsNew)
	assert.Equal(t, 0, tail.State.Repetitions)
	assert.Equal(t, 1, tail.State.IntervalDays)
	assert.Equal(t, current.State.TotalReviews+1, tail.State.TotalReviews)
}

func TestSession_Rate_RelearnLimit(t *testing.T) {
	tests := []struct {
		name        string
		maxRelearns int
		wantRatings int
	}{
		{name: "default limit", maxRelearns: DefaultMaxRelearnAttempts, wantRatings: 4},
		{name: "single retry", maxRelearns: 1, wantRatings: 2},
		{name: "no retries", maxRelearns: 0, wantRatings: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			config := DefaultConfig()
			config.MaxRelearnAttempts = tt.maxRelearns
			s := startedSession(t, newFixture(1, 0), config)

			ratings := 0
			for s.Phase() == PhaseActive {
				_, err := s.Rate(ctx, domain.QualityBlackout)
				require.NoError(t, err)
				ratings++
				require.LessOrEqual(t, ratings, 10, "queue must not grow without bound")
			}

			assert.Equal(t, tt.wantRatings, ratings)
			assert.Equal(t, PhaseSummary, s.Phase())
			assert.Equal(t, Stats{Total: tt.wantRatings, Reviewed: tt.wantRatings, Incorrect: tt.wantRatings},
				s.Stats())
		})
	}
}

func TestSession_Rate_Counters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(1, 2)
	s := startedSession(t, f, DefaultConfig())

	// due item correct, first new item correct, second new item wrong then right
	for _, q := range []domain.Quality{domain.QualityGood, domain.QualityEasy, domain.QualityWrong, domain.QualityHard} {
		_, err := s.Rate(ctx, q)
		require.NoError(t, err)
	}

	assert.Equal(t, PhaseSummary, s.Phase())
	assert.Equal(t, Stats{Total: 4, Reviewed: 4, Correct: 3, Incorrect: 1, NewLearned: 1}, s.Stats(),
		"a relearned copy does not count as a new item learned")
}

func TestSession_Rate_RecordsReviews(t *testing.T) {
	ctx := context.Background()
	f := newFixture(1, 1)
	s := startedSession(t, f, DefaultConfig())

	due, _ := s.Current()
	outcome, err := s.Rate(ctx, domain.QualityGood)
	require.NoError(t, err)
	assert.Equal(t, due.Item.ID, outcome.ItemID)
	assert.Equal(t, domain.Schedule{Repetitions: 2, EaseFactor: 2.5, IntervalDays: 6}, outcome.Schedule)
	assert.Equal(t, domain.StartOfDay(testNow.AddDate(0, 0, 6)), outcome.DueAt)

	_, err = s.Rate(ctx, domain.QualityEasy)
	require.NoError(t, err)

	reviews := f.syncer.Reviews()
	require.Len(t, reviews, 2)

	first := reviews[0]
	require.NotNil(t, first.Before)
	assert.Equal(t, due.State.Schedule(), *first.Before)
	assert.Equal(t, outcome.Schedule, first.State.Schedule())
	assert.Equal(t, outcome.DueAt, first.State.DueAt)
	assert.Equal(t, 2, first.State.TotalReviews)
	assert.Equal(t, 1, first.State.CorrectReviews)
	require.NotNil(t, first.State.LastReviewedAt)
	assert.Equal(t, testNow, *first.State.LastReviewedAt)
	assert.True(t, first.WasCorrect)

	second := reviews[1]
	assert.Nil(t, second.Before, "new items have no prior schedule")
	assert.Equal(t, f.items[1].ID, second.State.ItemID)
	assert.Equal(t, 1, second.State.IntervalDays)
	assert.Equal(t, domain.QualityEasy, second.Quality)
}

func TestSession_Rate_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid quality leaves the session untouched", func(t *testing.T) {
		f := newFixture(1, 0)
		s := startedSession(t, f, DefaultConfig())

		_, err := s.Rate(ctx, domain.Quality(6))
		assert.ErrorIs(t, err, srs.ErrInvalidQuality)
		assert.Equal(t, Stats{Total: 1, Remaining: 1}, s.Stats())
		assert.Empty(t, f.syncer.Reviews())
	})

	t.Run("missing identity aborts the rating", func(t *testing.T) {
		f := newFixture(1, 0)
		s := startedSession(t, f, DefaultConfig())
		f.syncer.recordErr = domain.ErrNotAuthenticated

		_, err := s.Rate(ctx, domain.QualityGood)
		assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
		assert.Equal(t, PhaseActive, s.Phase())
		assert.Equal(t, Stats{Total: 1, Remaining: 1}, s.Stats())
	})

	t.Run("other persistence failures do not stop the session", func(t *testing.T) {
		f := newFixture(1, 0)
		s := startedSession(t, f, DefaultConfig())
		f.syncer.recordErr = errors.New("cache offline")

		_, err := s.Rate(ctx, domain.QualityGood)
		require.NoError(t, err)
		assert.Equal(t, PhaseSummary, s.Phase())
	})

	t.Run("rating after summary", func(t *testing.T) {
		s := startedSession(t, newFixture(1, 0), DefaultConfig())
		_, err := s.Rate(ctx, domain.QualityGood)
		require.NoError(t, err)

		_, err = s.Rate(ctx, domain.QualityGood)
		assert.ErrorIs(t, err, ErrNotActive)
	})
}

func TestSession_Preview(t *testing.T) {
	s := startedSession(t, newFixture(1, 0), DefaultConfig())

	card, ok := s.Current()
	require.True(t, ok)

	preview, ok := s.Preview()
	require.True(t, ok)
	assert.Equal(t, srs.Preview{1, 1, 1, 6, 6, 6}, preview)

	again, _ := s.Preview()
	assert.Equal(t, preview, again)
	after, _ := s.Current()
	assert.Equal(t, card, after, "previewing does not change the card")

	_, err := s.Rate(context.Background(), domain.QualityGood)
	require.NoError(t, err)
	_, ok = s.Preview()
	assert.False(t, ok)
}

func TestSession_Close(t *testing.T) {
	ctx := context.Background()
	f := newFixture(2, 0)
	s := startedSession(t, f, DefaultConfig())
	_, err := s.Rate(ctx, domain.QualityGood)
	require.NoError(t, err)

	s.Close()
	s.Close()

	assert.True(t, s.Closed())
	assert.Equal(t, Stats{}, s.Stats())
	_, ok := s.Current()
	assert.False(t, ok)

	_, err = s.Rate(ctx, domain.QualityGood)
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, s.Restart(ctx), ErrSessionClosed)
	assert.Len(t, f.syncer.Reviews(), 1, "dispatched reviews are kept")
}

func TestSession_Restart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(1, 1)
	s := startedSession(t, f, DefaultConfig())

	_, err := s.Rate(ctx, domain.QualityGood)
	require.NoError(t, err)
	_, err = s.Rate(ctx, domain.QualityGood)
	require.NoError(t, err)
	require.Equal(t, PhaseSummary, s.Phase())

	require.NoError(t, s.Restart(ctx))
	assert.Equal(t, PhaseActive, s.Phase())
	assert.Equal(t, Stats{Total: 2, Remaining: 2}, s.Stats())
	assert.Equal(t, 2, f.syncer.loadCalls)
}
