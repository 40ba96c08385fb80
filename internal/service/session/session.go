package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/domain/srs"
	"github.com/phrazzld/scry-vocab/internal/platform/logger"
	"github.com/phrazzld/scry-vocab/internal/service/syncer"
)

// DefaultMaxRelearnAttempts caps how often one item is requeued per session.
const DefaultMaxRelearnAttempts = 3

// Phase is the state of a session.
type Phase string

// Session phases
const (
	PhaseLoading Phase = "loading"
	PhaseEmpty   Phase = "empty"
	PhaseActive  Phase = "active"
	PhaseSummary Phase = "summary"
)

// Syncer loads review material and persists ratings.
// *syncer.Coordinator implements it.
type Syncer interface {
	ReviewMaterial(ctx context.Context, collectionID uuid.UUID) (*syncer.ReviewMaterial, error)
	RecordReview(ctx context.Context, review syncer.Review) error
}

// Config shapes sessions.
type Config struct {
	NewItemLimit       int
	MaxRelearnAttempts int
}

// DefaultConfig returns the standard session configuration.
func DefaultConfig() Config {
	return Config{
		NewItemLimit:       DefaultNewItemLimit,
		MaxRelearnAttempts: DefaultMaxRelearnAttempts,
	}
}

// Stats are the running counters of a session.
type Stats struct {
	Total      int `json:"total"`
	Reviewed   int `json:"reviewed"`
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	NewLearned int `json:"new_learned"`
	Remaining  int `json:"remaining"`
}

// Outcome describes what one rating did.
type Outcome struct {
	ItemID     uuid.UUID       `json:"item_id"`
	Quality    domain.Quality  `json:"quality"`
	WasCorrect bool            `json:"was_correct"`
	Schedule   domain.Schedule `json:"schedule"`
	DueAt      time.Time       `json:"due_at"`
	Requeued   bool            `json:"requeued"`
	Phase      Phase           `json:"phase"`
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// Session is one pass over a collection's due and new items.
// It is safe for concurrent use; operations are serialized.
type Session struct {
	mu sync.Mutex

	id           uuid.UUID
	collectionID uuid.UUID
	userID       uuid.UUID

	syncer    Syncer
	scheduler srs.Service
	config    Config
	now       func() time.Time
	logger    *slog.Logger

	phase        Phase
	started      bool
	closed       bool
	queue        []Card
	pos          int
	stats        Stats
	relearns     map[uuid.UUID]int
	lastActivity time.Time
}

// New creates a session in the Loading phase. Call Start to build its queue.
func New(
	collectionID uuid.UUID,
	sync Syncer,
	scheduler srs.Service,
	config Config,
	log *slog.Logger,
	opts ...Option,
) *Session {
	if sync == nil {
		panic("syncer cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	id := uuid.New()
	s := &Session{
		id:           id,
		collectionID: collectionID,
		syncer:       sync,
		scheduler:    scheduler,
		config:       config,
		now:          time.Now,
		phase:        PhaseLoading,
		relearns:     make(map[uuid.UUID]int),
		logger: log.With(
			slog.String("component", "review_session"),
			slog.String("session_id", id.String()),
			slog.String("collection_id", collectionID.String()),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastActivity = s.now()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// CollectionID returns the collection under review.
func (s *Session) CollectionID() uuid.UUID {
	return s.collectionID
}

// UserID returns the owner of the session, known once it has loaded.
func (s *Session) UserID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Start loads review material and builds the queue. The session ends up
// Active, or Empty when nothing is due and there are no new items.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStartError("session is closed", ErrSessionClosed)
	}
	if s.started {
		return NewStartError("cannot start twice", ErrAlreadyStarted)
	}
	return s.load(ctx)
}

// Restart discards progress and reloads the queue from current material.
func (s *Session) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStartError("session is closed", ErrSessionClosed)
	}
	return s.load(ctx)
}

// load must be called with s.mu held.
func (s *Session) load(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.phase = PhaseLoading
	s.queue = nil
	s.pos = 0
	s.stats = Stats{}
	s.relearns = make(map[uuid.UUID]int)
	s.started = true
	s.lastActivity = s.now()

	material, err := s.syncer.ReviewMaterial(ctx, s.collectionID)
	if err != nil {
		log.Error("failed to load review material", slog.String("error", err.Error()))
		return NewStartError("failed to load review material", err)
	}

	now := s.now()
	s.userID = material.UserID
	s.queue = BuildQueue(material.Items, material.States, material.UserID, now, s.config.NewItemLimit)
	s.stats.Total = len(s.queue)
	s.stats.Remaining = len(s.queue)

	if len(s.queue) == 0 {
		s.phase = PhaseEmpty
	} else {
		s.phase = PhaseActive
	}

	log.Info("review session loaded",
		slog.String("phase", string(s.phase)),
		slog.Int("queue_length", len(s.queue)),
		slog.Int("items", len(material.Items)))
	return nil
}

// Rate applies a rating to the current card and advances the session.
// A failed card goes back to the end of the queue unless it has used up its
// relearn attempts. The local write completes before Rate returns; the remote
// write does not.
func (s *Session) Rate(ctx context.Context, quality domain.Quality) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.closed {
		return Outcome{}, NewRateError("session is closed", ErrSessionClosed)
	}
	if s.phase != PhaseActive {
		return Outcome{}, NewRateError("phase is "+string(s.phase), ErrNotActive)
	}

	card := s.queue[s.pos]
	now := s.now()

	result, err := s.scheduler.ProcessReview(card.State.Schedule(), quality, now)
	if err != nil {
		return Outcome{}, NewRateError("invalid rating", err)
	}

	next := card.State
	next.Repetitions = result.NextState.Repetitions
	next.EaseFactor = result.NextState.EaseFactor
	next.IntervalDays = result.NextState.IntervalDays
	next.DueAt = result.NextDueDate
	next.LastReviewedAt = &now
	next.TotalReviews++
	if result.WasCorrect {
		next.CorrectReviews++
	}

	review := syncer.Review{
		State:      next,
		Quality:    quality,
		WasCorrect: result.WasCorrect,
		ReviewedAt: now,
	}
	if !card.IsNew {
		before := card.State.Schedule()
		review.Before = &before
	}
	if err := s.syncer.RecordReview(ctx, review); err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			return Outcome{}, NewRateError("cannot persist rating", err)
		}
		log.Warn("failed to record review, continuing session",
			slog.String("item_id", card.Item.ID.String()),
			slog.String("error", err.Error()))
	}

	s.stats.Reviewed++
	if result.WasCorrect {
		s.stats.Correct++
		if card.IsNew {
			s.stats.NewLearned++
		}
	} else {
		s.stats.Incorrect++
	}

	requeued := false
	if !result.WasCorrect {
		requeued = s.requeue(ctx, card, next)
	}

	s.pos++
	if s.pos >= len(s.queue) {
		s.phase = PhaseSummary
		log.Info("review session complete",
			slog.Int("reviewed", s.stats.Reviewed),
			slog.Int("correct", s.stats.Correct),
			slog.Int("incorrect", s.stats.Incorrect))
	}
	s.stats.Remaining = len(s.queue) - s.pos
	s.lastActivity = now

	return Outcome{
		ItemID:     card.Item.ID,
		Quality:    quality,
		WasCorrect: result.WasCorrect,
		Schedule:   result.NextState,
		DueAt:      result.NextDueDate,
		Requeued:   requeued,
		Phase:      s.phase,
	}, nil
}

// requeue appends a relearn copy of card carrying its new state. It must be
// called with s.mu held.
func (s *Session) requeue(ctx context.Context, card Card, next domain.LearningState) bool {
	attempts := s.relearns[card.Item.ID]
	if attempts >= s.config.MaxRelearnAttempts {
		logger.FromContextOrDefault(ctx, s.logger).Debug("relearn limit reached",
			slog.String("item_id", card.Item.ID.String()),
			slog.Int("attempts", attempts))
		return false
	}
	s.relearns[card.Item.ID] = attempts + 1
	s.queue = append(s.queue, Card{Item: card.Item, State: next})
	s.stats.Total++
	return true
}

// Current returns the card awaiting a rating, if the session is active.
func (s *Session) Current() (Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.phase != PhaseActive {
		return Card{}, false
	}
	return s.queue[s.pos], true
}

// Preview returns the interval each rating would give the current card.
func (s *Session) Preview() (srs.Preview, bool) {
	card, ok := s.Current()
	if !ok {
		return srs.Preview{}, false
	}
	return s.scheduler.PreviewIntervals(card.State.Schedule()), true
}

// Stats returns a copy of the running counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// QueueLength returns the number of cards in the queue, including the ones
// already rated.
func (s *Session) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// LastActivity returns when the session was last loaded or rated.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Close tears the session down. The queue and counters are discarded;
// ratings already dispatched still complete in the background.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.queue = nil
	s.stats = Stats{}
	s.relearns = nil
	s.logger.Debug("review session closed")
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
