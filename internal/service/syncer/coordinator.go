package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/platform/logger"
	"github.com/phrazzld/scry-vocab/internal/service/auth"
	"github.com/phrazzld/scry-vocab/internal/store"
	"github.com/phrazzld/scry-vocab/internal/task"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Default staleness windows.
const (
	DefaultStatsMaxAge   = 60 * time.Second
	DefaultContentMaxAge = 5 * time.Minute
)

// Config holds the staleness windows of the read policies.
type Config struct {
	StatsMaxAge   time.Duration
	ContentMaxAge time.Duration
}

// DefaultConfig returns the standard staleness windows.
func DefaultConfig() Config {
	return Config{
		StatsMaxAge:   DefaultStatsMaxAge,
		ContentMaxAge: DefaultContentMaxAge,
	}
}

// Dispatcher runs fire-and-forget background work. *task.TaskRunner implements it.
type Dispatcher interface {
	Submit(ctx context.Context, t task.Task)
}

// ReviewMaterial is what a review session is built from.
type ReviewMaterial struct {
	UserID       uuid.UUID
	CollectionID uuid.UUID
	Items        []domain.Item
	States       map[uuid.UUID]domain.LearningState
}

// Review is the outcome of one rating, ready to be persisted.
type Review struct {
	// State is the learning state after the rating.
	State domain.LearningState

	// Before is the schedule prior to the rating; nil for a new item.
	Before *domain.Schedule

	Quality    domain.Quality
	WasCorrect bool
	ReviewedAt time.Time
}

// Coordinator mediates every read and write between sessions, the local
// cache and the remote store.
type Coordinator struct {
	remote   store.RemoteStore
	cache    store.LocalCache
	identity auth.IdentityProvider
	tasks    Dispatcher
	config   Config
	refresh  singleflight.Group
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// NewCoordinator creates a Coordinator. It panics if any collaborator is nil.
func NewCoordinator(
	remote store.RemoteStore,
	cache store.LocalCache,
	identity auth.IdentityProvider,
	tasks Dispatcher,
	config Config,
	log *slog.Logger,
	opts ...Option,
) *Coordinator {
	if remote == nil {
		panic("remote store cannot be nil")
	}
	if cache == nil {
		panic("local cache cannot be nil")
	}
	if identity == nil {
		panic("identity provider cannot be nil")
	}
	if tasks == nil {
		panic("dispatcher cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	if config.StatsMaxAge <= 0 {
		config.StatsMaxAge = DefaultStatsMaxAge
	}
	if config.ContentMaxAge <= 0 {
		config.ContentMaxAge = DefaultContentMaxAge
	}

	c := &Coordinator{
		remote:   remote,
		cache:    cache,
		identity: identity,
		tasks:    tasks,
		config:   config,
		now:      time.Now,
		logger:   log.With(slog.String("component", "sync_coordinator")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CollectionStats returns stats for every requested collection, in request
// order. The cache answers only when all of them are fresh. When the remote
// fetch fails, whatever the cache still holds is returned instead.
func (c *Coordinator) CollectionStats(
	ctx context.Context,
	collectionIDs []uuid.UUID,
) ([]domain.CollectionStats, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	userID, err := c.identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if len(collectionIDs) == 0 {
		return []domain.CollectionStats{}, nil
	}

	cached, allFresh := c.cachedStats(ctx, userID, collectionIDs)
	if allFresh {
		log.Debug("serving collection stats from cache", slog.Int("collections", len(collectionIDs)))
		return cached, nil
	}

	counts, err := c.remote.FetchAggregateCounts(ctx, collectionIDs, userID, c.now())
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) || len(cached) == 0 {
			return nil, fmt.Errorf("fetching collection stats: %w", err)
		}
		log.Warn("remote stats unavailable, serving cached values",
			slog.String("error", err.Error()),
			slog.Int("cached", len(cached)),
			slog.Int("requested", len(collectionIDs)))
		return cached, nil
	}

	stats := make([]domain.CollectionStats, 0, len(collectionIDs))
	for _, id := range collectionIDs {
		agg := counts[id]
		stats = append(stats, domain.NewCollectionStats(id, agg.Total, agg.Learned, agg.Due))
	}
	c.cache.WriteStats(ctx, userID, stats)
	return stats, nil
}

// cachedStats returns the cached stats that exist and whether every
// requested collection was present and fresh.
func (c *Coordinator) cachedStats(
	ctx context.Context,
	userID uuid.UUID,
	collectionIDs []uuid.UUID,
) ([]domain.CollectionStats, bool) {
	stats := make([]domain.CollectionStats, 0, len(collectionIDs))
	allFresh := true
	for _, id := range collectionIDs {
		if c.cache.IsStale(ctx, store.StatsKey(userID, id), c.config.StatsMaxAge) {
			allFresh = false
		}
		snap := c.cache.ReadStats(ctx, userID, id)
		if snap == nil || len(snap.Entries) == 0 {
			allFresh = false
			continue
		}
		stats = append(stats, snap.Entries[0].Value)
	}
	return stats, allFresh
}

// Items returns a collection's items, served from the cache while fresh.
func (c *Coordinator) Items(ctx context.Context, collectionID uuid.UUID) ([]domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	if _, err := c.identity.CurrentUser(ctx); err != nil {
		return nil, err
	}

	snap := c.cache.ReadItems(ctx, collectionID)
	if snap != nil && !c.cache.IsStale(ctx, store.ItemsKey(collectionID), c.config.ContentMaxAge) {
		return snap.Values(), nil
	}

	items, err := c.remote.FetchItemsForCollection(ctx, collectionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) || snap == nil {
			return nil, fmt.Errorf("fetching items: %w", err)
		}
		log.Warn("remote items unavailable, serving stale cache",
			slog.String("collection_id", collectionID.String()),
			slog.String("error", err.Error()))
		return snap.Values(), nil
	}

	c.cache.WriteItems(ctx, collectionID, items)
	return items, nil
}

// ReviewMaterial returns the items and learning states a session is built
// from. Cached material is returned immediately, with a background refresh
// when it is stale. Only a cache that was never synced blocks on the remote.
func (c *Coordinator) ReviewMaterial(ctx context.Context, collectionID uuid.UUID) (*ReviewMaterial, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	userID, err := c.identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	items := c.cache.ReadItems(ctx, collectionID)
	states := c.cache.ReadStates(ctx, userID, collectionID)

	if items != nil && states != nil {
		if c.cache.IsStale(ctx, store.ItemsKey(collectionID), c.config.ContentMaxAge) ||
			c.cache.IsStale(ctx, store.StatesKey(userID, collectionID), c.config.ContentMaxAge) {
			c.scheduleRefresh(ctx, userID, collectionID)
		}
		return newReviewMaterial(userID, collectionID, items.Values(), states.Values()), nil
	}

	material, err := c.fetchMaterial(ctx, userID, collectionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) || (items == nil && states == nil) {
			return nil, err
		}
		log.Warn("remote material unavailable, serving partial cache",
			slog.String("collection_id", collectionID.String()),
			slog.String("error", err.Error()))
		return newReviewMaterial(userID, collectionID, items.Values(), states.Values()), nil
	}
	return material, nil
}

func newReviewMaterial(
	userID, collectionID uuid.UUID,
	items []domain.Item,
	states []domain.LearningState,
) *ReviewMaterial {
	byItem := make(map[uuid.UUID]domain.LearningState, len(states))
	for _, s := range states {
		byItem[s.ItemID] = s
	}
	if items == nil {
		items = []domain.Item{}
	}
	return &ReviewMaterial{
		UserID:       userID,
		CollectionID: collectionID,
		Items:        items,
		States:       byItem,
	}
}

// scheduleRefresh dispatches a background refresh of a collection's material.
func (c *Coordinator) scheduleRefresh(ctx context.Context, userID, collectionID uuid.UUID) {
	c.tasks.Submit(ctx, task.NewFuncTask(task.TaskTypeRefreshMaterial, func(ctx context.Context) error {
		_, err := c.fetchMaterial(ctx, userID, collectionID)
		return err
	}))
}

// fetchMaterial loads items and states concurrently and writes both into the
// cache. Concurrent calls for the same user and collection share one fetch.
func (c *Coordinator) fetchMaterial(
	ctx context.Context,
	userID, collectionID uuid.UUID,
) (*ReviewMaterial, error) {
	key := store.StatesKey(userID, collectionID)
	v, err, shared := c.refresh.Do(key, func() (any, error) {
		var (
			items  []domain.Item
			states map[uuid.UUID]domain.LearningState
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			items, err = c.remote.FetchItemsForCollection(gctx, collectionID)
			if err != nil {
				return fmt.Errorf("fetching items: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			var err error
			states, err = c.remote.FetchLearningStates(gctx, collectionID, userID)
			if err != nil {
				return fmt.Errorf("fetching learning states: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		stateList := make([]domain.LearningState, 0, len(states))
		for _, s := range states {
			stateList = append(stateList, s)
		}
		c.cache.WriteItems(ctx, collectionID, items)
		c.cache.WriteStates(ctx, userID, collectionID, stateList)

		return newReviewMaterial(userID, collectionID, items, stateList), nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, c.logger).Debug("review material refreshed",
		slog.String("collection_id", collectionID.String()),
		slog.Bool("shared", shared))
	return v.(*ReviewMaterial), nil
}

// RecordReview persists a rating. The local cache is updated before it
// returns; the remote commit and the log append are dispatched in the
// background. Only a missing identity is reported.
func (c *Coordinator) RecordReview(ctx context.Context, review Review) error {
	userID, err := c.identity.CurrentUser(ctx)
	if err != nil {
		return err
	}
	review.State.UserID = userID

	c.ApplyLocal(ctx, review.State)

	state := review.State
	commit := store.ReviewCommit{
		UserID:       userID,
		ItemID:       state.ItemID,
		CollectionID: state.CollectionID,
		State:        state.Schedule(),
		DueAt:        state.DueAt,
		ReviewedAt:   review.ReviewedAt,
		WasCorrect:   review.WasCorrect,
	}
	entry := domain.NewReviewLogEntry(
		userID, state.ItemID, state.CollectionID,
		review.Quality, review.Before, state.Schedule(), review.ReviewedAt,
	)

	c.tasks.Submit(ctx, task.NewFuncTask(task.TaskTypeCommitReview, func(ctx context.Context) error {
		return c.CommitRemote(ctx, commit)
	}))
	c.tasks.Submit(ctx, task.NewFuncTask(task.TaskTypeAppendReviewLog, func(ctx context.Context) error {
		return c.AppendLog(ctx, entry)
	}))
	return nil
}

// ApplyLocal writes state into the cache and drops the collection's cached
// stats so the next stats read goes to the remote.
func (c *Coordinator) ApplyLocal(ctx context.Context, state domain.LearningState) {
	c.cache.UpsertState(ctx, state)
	c.cache.Invalidate(ctx, store.StatsKey(state.UserID, state.CollectionID))
}

// CommitRemote writes a rating to the remote store through the atomic
// procedure, falling back to an upsert plus a best-effort counter increment
// when the procedure is missing or the backend is unreachable.
func (c *Coordinator) CommitRemote(ctx context.Context, commit store.ReviewCommit) error {
	log := logger.FromContextOrDefault(ctx, c.logger).With(
		slog.String("user_id", commit.UserID.String()),
		slog.String("item_id", commit.ItemID.String()),
	)

	err := c.remote.CommitReviewAtomic(ctx, commit)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrUnsupportedOperation) && !errors.Is(err, store.ErrRemoteUnavailable) {
		return fmt.Errorf("committing review: %w", err)
	}
	log.Info("atomic commit unavailable, using fallback write path", slog.String("reason", err.Error()))

	if err := c.remote.UpsertLearningState(ctx, commit); err != nil {
		return fmt.Errorf("upserting learning state: %w", err)
	}
	if err := c.remote.IncrementReviewCounters(ctx, commit.UserID, commit.ItemID, commit.WasCorrect); err != nil {
		log.Warn("dropping review counter increment", slog.String("error", err.Error()))
	}
	return nil
}

// AppendLog appends a review log entry. A duplicate entry has already been
// recorded and counts as success.
func (c *Coordinator) AppendLog(ctx context.Context, entry domain.ReviewLogEntry) error {
	err := c.remote.AppendReviewLog(ctx, entry)
	if err != nil && !store.IsDuplicateError(err) {
		return fmt.Errorf("appending review log: %w", err)
	}
	return nil
}

// UserStats computes dashboard statistics from the user's learning states,
// the review logs of the daily stats window and the full review history for
// the streak. The three reads run concurrently.
func (c *Coordinator) UserStats(ctx context.Context) (domain.UserStats, error) {
	userID, err := c.identity.CurrentUser(ctx)
	if err != nil {
		return domain.UserStats{}, err
	}

	now := c.now()
	since := domain.StartOfDay(now).AddDate(0, 0, -(domain.DailyStatsWindowDays - 1))

	var (
		states      []domain.LearningState
		logs        []domain.ReviewLogEntry
		reviewTimes []time.Time
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		states, err = c.remote.FetchUserLearningStates(gctx, userID)
		if err != nil {
			return fmt.Errorf("fetching learning states: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		logs, err = c.remote.FetchReviewLogs(gctx, userID, since)
		if err != nil {
			return fmt.Errorf("fetching review logs: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		reviewTimes, err = c.remote.FetchReviewTimes(gctx, userID)
		if err != nil {
			return fmt.Errorf("fetching review times: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.UserStats{}, err
	}

	return domain.BuildUserStats(states, logs, reviewTimes, now), nil
}

// Reset drops every cached partition, e.g. when the user signs out.
func (c *Coordinator) Reset(ctx context.Context) {
	c.cache.Clear(ctx)
	logger.FromContextOrDefault(ctx, c.logger).Info("local cache cleared")
}
