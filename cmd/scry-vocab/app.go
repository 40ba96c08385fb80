package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/scry-vocab/internal/api"
	"github.com/phrazzld/scry-vocab/internal/config"
	"github.com/phrazzld/scry-vocab/internal/domain/srs"
	"github.com/phrazzld/scry-vocab/internal/platform/postgres"
	"github.com/phrazzld/scry-vocab/internal/platform/sqlite"
	"github.com/phrazzld/scry-vocab/internal/scheduler"
	"github.com/phrazzld/scry-vocab/internal/service/auth"
	"github.com/phrazzld/scry-vocab/internal/service/session"
	"github.com/phrazzld/scry-vocab/internal/service/syncer"
	"github.com/phrazzld/scry-vocab/internal/task"
)

// application holds the shared dependencies of the server and releases them
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	db      *sql.DB
	cacheDB *sqlx.DB

	jwtService  auth.JWTService
	taskRunner  *task.TaskRunner
	coordinator *syncer.Coordinator
	sessions    *session.Manager
	scheduler   *scheduler.Scheduler
}

// newApplication wires every component on top of an open remote database.
// The application owns db from here on. When wiring fails, everything
// already started or opened is released, db included.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	db *sql.DB,
) (_ *application, err error) {
	app := &application{
		config: cfg,
		logger: log,
		db:     db,
	}
	defer func() {
		if err != nil {
			app.cleanup()
		}
	}()

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	log.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	app.cacheDB, err = openCache(ctx, cfg.Cache.Path, log)
	if err != nil {
		return nil, err
	}
	cache := sqlite.NewLocalCache(app.cacheDB, log)

	app.taskRunner = task.NewTaskRunner(task.TaskRunnerConfig{
		WorkerCount: cfg.Sync.Workers,
		QueueSize:   cfg.Sync.QueueSize,
	}, log)
	app.taskRunner.Start()

	app.coordinator = syncer.NewCoordinator(
		postgres.NewPostgresRemoteStore(db, log),
		cache,
		auth.ContextIdentity{},
		app.taskRunner,
		syncer.Config{
			StatsMaxAge:   cfg.Cache.StatsMaxAge,
			ContentMaxAge: cfg.Cache.ContentMaxAge,
		},
		log,
	)

	srsService, err := srs.NewDefaultService()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scheduling engine: %w", err)
	}

	app.sessions = session.NewManager(app.coordinator, srsService, session.Config{
		NewItemLimit:       cfg.Review.NewItemLimit,
		MaxRelearnAttempts: cfg.Review.MaxRelearnAttempts,
	}, log)

	app.scheduler = scheduler.New(cache, app.sessions, scheduler.Config{
		Interval:       cfg.Cache.PurgeInterval,
		CacheRetention: cfg.Cache.Retention,
		SessionIdle:    cfg.Review.SessionIdleTimeout,
	}, log)
	if err = app.scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start maintenance scheduler: %w", err)
	}

	return app, nil
}

// openCache opens the local cache database. When the file cannot be opened
// the cache runs in memory for the life of the process.
func openCache(ctx context.Context, path string, log *slog.Logger) (*sqlx.DB, error) {
	if path == "" {
		path = sqlite.DefaultPath()
	}

	db, err := sqlite.Open(ctx, path)
	if err == nil {
		log.Info("local cache opened", slog.String("path", path))
		return db, nil
	}

	log.Warn("local cache unavailable, falling back to memory",
		slog.String("path", path),
		slog.String("error", err.Error()))
	db, err = sqlite.Open(ctx, sqlite.MemoryDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache: %w", err)
	}
	return db, nil
}

// router builds the HTTP handler.
func (app *application) router() http.Handler {
	return api.NewRouter(api.RouterDeps{
		Sessions:   app.sessions,
		Stats:      app.coordinator,
		Content:    app.coordinator,
		JWTService: app.jwtService,
		Logger:     app.logger,
	})
}

// cleanup stops background work, draining pending remote writes, and closes
// the databases.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	if app.cacheDB != nil {
		if err := app.cacheDB.Close(); err != nil {
			app.logger.Error("failed to close local cache", slog.String("error", err.Error()))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}
}
