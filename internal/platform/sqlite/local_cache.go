package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/platform/logger"
	"github.com/phrazzld/scry-vocab/internal/store"
)

const (
	selectItems = `
		SELECT id, collection_id, term, meaning, pronunciation, example, created_at, position, cached_at
		FROM items
		WHERE collection_id = ?
		ORDER BY position`

	insertItem = `
		INSERT OR REPLACE INTO items
			(id, collection_id, term, meaning, pronunciation, example, created_at, position, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectStates = `
		SELECT user_id, item_id, collection_id, repetitions, ease_factor, interval_days,
			due_at, last_reviewed_at, total_reviews, correct_reviews, cached_at
		FROM learning_states
		WHERE user_id = ? AND collection_id = ?
		ORDER BY due_at`

	upsertState = `
		INSERT INTO learning_states
			(user_id, item_id, collection_id, repetitions, ease_factor, interval_days,
			 due_at, last_reviewed_at, total_reviews, correct_reviews, cached_at)
		VALUES
			(:user_id, :item_id, :collection_id, :repetitions, :ease_factor, :interval_days,
			 :due_at, :last_reviewed_at, :total_reviews, :correct_reviews, :cached_at)
		ON CONFLICT (user_id, item_id) DO UPDATE SET
			collection_id = excluded.collection_id,
			repetitions = excluded.repetitions,
			ease_factor = excluded.ease_factor,
			interval_days = excluded.interval_days,
			due_at = excluded.due_at,
			last_reviewed_at = excluded.last_reviewed_at,
			total_reviews = excluded.total_reviews,
			correct_reviews = excluded.correct_reviews,
			cached_at = excluded.cached_at`

	selectStats = `
		SELECT user_id, collection_id, total, learned, due, new_items, cached_at
		FROM collection_stats
		WHERE user_id = ? AND collection_id = ?`

	upsertStats = `
		INSERT OR REPLACE INTO collection_stats
			(user_id, collection_id, total, learned, due, new_items, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	selectMetadata = `
		SELECT key, partition, user_id, collection_id, last_sync, version
		FROM cache_metadata
		WHERE key = ?`

	stampMetadata = `
		INSERT INTO cache_metadata (key, partition, user_id, collection_id, last_sync, version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			last_sync = excluded.last_sync,
			version = excluded.version`
)

// LocalCache implements store.LocalCache on SQLite.
type LocalCache struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a LocalCache.
type Option func(*LocalCache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *LocalCache) {
		c.now = now
	}
}

// Ensure LocalCache implements store.LocalCache
var _ store.LocalCache = (*LocalCache)(nil)

// NewLocalCache creates a cache on an opened database.
// It will panic if db is nil.
func NewLocalCache(db *sqlx.DB, log *slog.Logger, opts ...Option) *LocalCache {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	c := &LocalCache{
		db:     db,
		logger: log.With(slog.String("component", "local_cache")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReadItems implements store.LocalCache.
func (c *LocalCache) ReadItems(ctx context.Context, collectionID uuid.UUID) *store.Snapshot[domain.Item] {
	return readPartition[domain.Item, itemRow](ctx, c, store.ItemsKey(collectionID), selectItems,
		collectionID.String())
}

// ReadStates implements store.LocalCache.
func (c *LocalCache) ReadStates(
	ctx context.Context,
	userID, collectionID uuid.UUID,
) *store.Snapshot[domain.LearningState] {
	return readPartition[domain.LearningState, stateRow](ctx, c, store.StatesKey(userID, collectionID),
		selectStates, userID.String(), collectionID.String())
}

// ReadStats implements store.LocalCache.
func (c *LocalCache) ReadStats(
	ctx context.Context,
	userID, collectionID uuid.UUID,
) *store.Snapshot[domain.CollectionStats] {
	return readPartition[domain.CollectionStats, statsRow](ctx, c, store.StatsKey(userID, collectionID),
		selectStats, userID.String(), collectionID.String())
}

// WriteItems implements store.LocalCache.
func (c *LocalCache) WriteItems(ctx context.Context, collectionID uuid.UUID, items []domain.Item) {
	now := c.now()
	meta := metadataRow{
		Key:          store.ItemsKey(collectionID),
		Partition:    partitionItems,
		CollectionID: collectionID.String(),
	}

	err := c.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE collection_id = ?`,
			collectionID.String()); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, insertItem)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		for i, item := range items {
			if _, err := stmt.ExecContext(ctx,
				item.ID.String(),
				collectionID.String(),
				item.Term,
				item.Meaning,
				item.Pronunciation,
				item.Example,
				toNanos(item.CreatedAt),
				i,
				toNanos(now),
			); err != nil {
				return err
			}
		}
		return stamp(ctx, tx, meta, now)
	})
	if err != nil {
		c.degrade(ctx, "write items", err)
	}
}

// WriteStates implements store.LocalCache.
func (c *LocalCache) WriteStates(
	ctx context.Context,
	userID, collectionID uuid.UUID,
	states []domain.LearningState,
) {
	now := c.now()
	meta := metadataRow{
		Key:          store.StatesKey(userID, collectionID),
		Partition:    partitionStates,
		UserID:       userID.String(),
		CollectionID: collectionID.String(),
	}

	err := c.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM learning_states WHERE user_id = ? AND collection_id = ?`,
			userID.String(), collectionID.String()); err != nil {
			return err
		}

		for _, s := range states {
			row := newStateRow(s, now)
			query, args, err := c.db.BindNamed(upsertState, row)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
		}
		return stamp(ctx, tx, meta, now)
	})
	if err != nil {
		c.degrade(ctx, "write states", err)
	}
}

// UpsertState implements store.LocalCache. The partition's sync time is not touched.
func (c *LocalCache) UpsertState(ctx context.Context, state domain.LearningState) {
	if _, err := c.db.NamedExecContext(ctx, upsertState, newStateRow(state, c.now())); err != nil {
		c.degrade(ctx, "upsert state", err)
	}
}

// WriteStats implements store.LocalCache.
func (c *LocalCache) WriteStats(ctx context.Context, userID uuid.UUID, stats []domain.CollectionStats) {
	now := c.now()
	err := c.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		for _, s := range stats {
			if _, err := tx.ExecContext(ctx, upsertStats,
				userID.String(),
				s.CollectionID.String(),
				s.Total,
				s.Learned,
				s.Due,
				s.New,
				toNanos(now),
			); err != nil {
				return err
			}
			meta := metadataRow{
				Key:          store.StatsKey(userID, s.CollectionID),
				Partition:    partitionStats,
				UserID:       userID.String(),
				CollectionID: s.CollectionID.String(),
			}
			if err := stamp(ctx, tx, meta, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.degrade(ctx, "write stats", err)
	}
}

// Invalidate implements store.LocalCache.
func (c *LocalCache) Invalidate(ctx context.Context, key string) {
	meta, ok := c.metadata(ctx, key)
	if !ok {
		if meta, ok = partitionFromKey(key); !ok {
			return
		}
	}
	if err := c.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return dropPartition(ctx, tx, meta)
	}); err != nil {
		c.degrade(ctx, "invalidate", err)
	}
}

// IsStale implements store.LocalCache.
func (c *LocalCache) IsStale(ctx context.Context, key string, maxAge time.Duration) bool {
	meta, ok := c.metadata(ctx, key)
	if !ok {
		return true
	}
	return c.now().Sub(fromNanos(meta.LastSync)) > maxAge
}

// Clear implements store.LocalCache.
func (c *LocalCache) Clear(ctx context.Context) {
	err := c.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		for _, table := range []string{"items", "learning_states", "collection_stats", "cache_metadata"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.degrade(ctx, "clear", err)
	}
}

// PurgeOlderThan drops every partition last synced more than maxAge ago and
// returns how many were removed.
func (c *LocalCache) PurgeOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := toNanos(c.now().Add(-maxAge))

	var expired []metadataRow
	if err := c.db.SelectContext(ctx, &expired,
		`SELECT key, partition, user_id, collection_id, last_sync, version
		 FROM cache_metadata WHERE last_sync < ?`, cutoff); err != nil {
		return 0, store.NewStoreError("cache_partition", "purge", "list expired partitions",
			fmt.Errorf("%w: %w", store.ErrCacheUnavailable, err))
	}
	if len(expired) == 0 {
		return 0, nil
	}

	err := c.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		for _, meta := range expired {
			if err := dropPartition(ctx, tx, meta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, store.NewStoreError("cache_partition", "purge", "drop partitions",
			fmt.Errorf("%w: %w", store.ErrCacheUnavailable, err))
	}
	return len(expired), nil
}

func (c *LocalCache) inTx(ctx context.Context, fn store.TxFn) error {
	return store.RunInTransaction(logger.WithLogger(ctx, c.log(ctx)), c.db.DB, fn)
}

func (c *LocalCache) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, c.logger)
}

// degrade records a storage failure. Callers see the partition as absent.
func (c *LocalCache) degrade(ctx context.Context, op string, err error) {
	c.log(ctx).WarnContext(ctx, "cache operation failed, treating as absent",
		slog.String("operation", op),
		slog.String("error", fmt.Errorf("%w: %w", store.ErrCacheUnavailable, err).Error()))
}

func (c *LocalCache) metadata(ctx context.Context, key string) (metadataRow, bool) {
	var meta metadataRow
	if err := c.db.GetContext(ctx, &meta, selectMetadata, key); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.degrade(ctx, "read metadata", err)
		}
		return metadataRow{}, false
	}
	return meta, true
}

type entryRow[T any] interface {
	entry() (store.Entry[T], error)
}

// readPartition returns nil when the partition was never synced or cannot be read.
func readPartition[T any, R entryRow[T]](
	ctx context.Context,
	c *LocalCache,
	key, query string,
	args ...any,
) *store.Snapshot[T] {
	meta, ok := c.metadata(ctx, key)
	if !ok {
		return nil
	}

	var rows []R
	if err := c.db.SelectContext(ctx, &rows, query, args...); err != nil {
		c.degrade(ctx, "read "+meta.Partition, err)
		return nil
	}

	snap := &store.Snapshot[T]{
		Entries:  make([]store.Entry[T], 0, len(rows)),
		LastSync: fromNanos(meta.LastSync),
	}
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			c.degrade(ctx, "decode "+meta.Partition, err)
			return nil
		}
		snap.Entries = append(snap.Entries, e)
	}
	return snap
}

func stamp(ctx context.Context, tx *sql.Tx, meta metadataRow, now time.Time) error {
	_, err := tx.ExecContext(ctx, stampMetadata,
		meta.Key, meta.Partition, meta.UserID, meta.CollectionID, toNanos(now), schemaVersion)
	return err
}

func dropPartition(ctx context.Context, tx *sql.Tx, meta metadataRow) error {
	var err error
	switch meta.Partition {
	case partitionItems:
		_, err = tx.ExecContext(ctx, `DELETE FROM items WHERE collection_id = ?`, meta.CollectionID)
	case partitionStates:
		_, err = tx.ExecContext(ctx,
			`DELETE FROM learning_states WHERE user_id = ? AND collection_id = ?`,
			meta.UserID, meta.CollectionID)
	case partitionStats:
		_, err = tx.ExecContext(ctx,
			`DELETE FROM collection_stats WHERE user_id = ? AND collection_id = ?`,
			meta.UserID, meta.CollectionID)
	default:
		err = fmt.Errorf("unknown partition %q", meta.Partition)
	}
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM cache_metadata WHERE key = ?`, meta.Key)
	return err
}
