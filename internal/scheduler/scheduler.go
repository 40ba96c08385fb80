// Package scheduler runs periodic maintenance: purging expired local cache
// partitions and closing abandoned review sessions.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// CachePurger drops cache partitions last synced before maxAge ago.
// *sqlite.LocalCache implements it.
type CachePurger interface {
	PurgeOlderThan(ctx context.Context, maxAge time.Duration) (int, error)
}

// SessionPruner closes sessions idle for longer than maxIdle.
// *session.Manager implements it.
type SessionPruner interface {
	PruneIdle(now time.Time, maxIdle time.Duration) int
}

// Config sets the job cadence and thresholds.
type Config struct {
	Interval       time.Duration
	CacheRetention time.Duration
	SessionIdle    time.Duration
}

// Scheduler manages the maintenance jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cache     CachePurger
	sessions  SessionPruner
	config    Config
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a scheduler. Either target may be nil to skip its job.
func New(cache CachePurger, sessions SessionPruner, config Config, log *slog.Logger) *Scheduler {
	if config.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		cache:     cache,
		sessions:  sessions,
		config:    config,
		now:       time.Now,
		logger:    log.With(slog.String("component", "scheduler")),
	}
}

// Start registers the jobs and runs them in the background. Each job also
// runs once immediately.
func (s *Scheduler) Start() error {
	if s.cache != nil {
		if _, err := s.scheduler.Every(s.config.Interval).Do(s.PurgeCache); err != nil {
			return err
		}
	}
	if s.sessions != nil {
		if _, err := s.scheduler.Every(s.config.Interval).Do(s.PruneSessions); err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	s.logger.Info("maintenance scheduler started",
		slog.Duration("interval", s.config.Interval),
		slog.Int("jobs", len(s.scheduler.Jobs())))
	return nil
}

// Stop terminates all scheduled jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// PurgeCache drops cache partitions older than the retention window.
func (s *Scheduler) PurgeCache() {
	if s.cache == nil || s.config.CacheRetention <= 0 {
		return
	}

	purged, err := s.cache.PurgeOlderThan(context.Background(), s.config.CacheRetention)
	if err != nil {
		s.logger.Error("cache purge failed", slog.String("error", err.Error()))
		return
	}
	if purged > 0 {
		s.logger.Info("purged expired cache partitions", slog.Int("count", purged))
	}
}

// PruneSessions closes review sessions nobody has touched within the idle window.
func (s *Scheduler) PruneSessions() {
	if s.sessions == nil || s.config.SessionIdle <= 0 {
		return
	}
	s.sessions.PruneIdle(s.now(), s.config.SessionIdle)
}
