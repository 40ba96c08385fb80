package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/platform/logger"
	"github.com/phrazzld/scry-vocab/internal/store"
	"golang.org/x/sync/errgroup"
)

const learningStateColumns = `
	user_id, item_id, collection_id, repetitions, ease_factor, interval_days,
	due_at, last_reviewed_at, total_reviews, correct_reviews`

// PostgresRemoteStore implements the store.RemoteStore interface
// using a PostgreSQL database as the storage backend.
type PostgresRemoteStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRemoteStore creates a new PostgreSQL implementation of the RemoteStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresRemoteStore(db store.DBTX, logger *slog.Logger) *PostgresRemoteStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRemoteStore{
		db:     db,
		logger: logger.With(slog.String("component", "remote_store")),
	}
}

// Ensure PostgresRemoteStore implements store.RemoteStore interface
var _ store.RemoteStore = (*PostgresRemoteStore)(nil)

// FetchItemsForCollection implements store.RemoteStore.
func (s *PostgresRemoteStore) FetchItemsForCollection(
	ctx context.Context,
	collectionID uuid.UUID,
) ([]domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, collection_id, term, meaning, pronunciation, example, created_at
		FROM items
		WHERE collection_id = $1
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, collectionID)
	if err != nil {
		log.Error("failed to fetch items",
			slog.String("error", err.Error()),
			slog.String("collection_id", collectionID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]domain.Item, 0)
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(
			&item.ID,
			&item.CollectionID,
			&item.Term,
			&item.Meaning,
			&item.Pronunciation,
			&item.Example,
			&item.CreatedAt,
		); err != nil {
			return nil, MapError(err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("items fetched",
		slog.String("collection_id", collectionID.String()),
		slog.Int("count", len(items)))
	return items, nil
}

// FetchLearningStates implements store.RemoteStore.
func (s *PostgresRemoteStore) FetchLearningStates(
	ctx context.Context,
	collectionID, userID uuid.UUID,
) (map[uuid.UUID]domain.LearningState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT` + learningStateColumns + `
		FROM learning_states
		WHERE user_id = $1 AND collection_id = $2
	`
	states, err := s.queryLearningStates(ctx, query, userID, collectionID)
	if err != nil {
		log.Error("failed to fetch learning states",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("collection_id", collectionID.String()))
		return nil, err
	}

	byItem := make(map[uuid.UUID]domain.LearningState, len(states))
	for _, st := range states {
		byItem[st.ItemID] = st
	}
	return byItem, nil
}

// FetchUserLearningStates implements store.RemoteStore.
func (s *PostgresRemoteStore) FetchUserLearningStates(
	ctx context.Context,
	userID uuid.UUID,
) ([]domain.LearningState, error) {
	query := `SELECT` + learningStateColumns + `
		FROM learning_states
		WHERE user_id = $1
		ORDER BY due_at
	`
	states, err := s.queryLearningStates(ctx, query, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to fetch user learning states",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	return states, nil
}

func (s *PostgresRemoteStore) queryLearningStates(
	ctx context.Context,
	query string,
	args ...any,
) ([]domain.LearningState, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	states := make([]domain.LearningState, 0)
	for rows.Next() {
		var st domain.LearningState
		var lastReviewed sql.NullTime
		if err := rows.Scan(
			&st.UserID,
			&st.ItemID,
			&st.CollectionID,
			&st.Repetitions,
			&st.EaseFactor,
			&st.IntervalDays,
			&st.DueAt,
			&lastReviewed,
			&st.TotalReviews,
			&st.CorrectReviews,
		); err != nil {
			return nil, MapError(err)
		}
		if lastReviewed.Valid {
			reviewed := lastReviewed.Time
			st.LastReviewedAt = &reviewed
		}
		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return states, nil
}

// CommitReviewAtomic implements store.RemoteStore.
// It calls the commit_review procedure, which upserts the learning state and
// bumps its counters in one statement. A backend without the procedure yields
// store.ErrUnsupportedOperation.
func (s *PostgresRemoteStore) CommitReviewAtomic(ctx context.Context, commit store.ReviewCommit) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT commit_review($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.db.ExecContext(ctx, query,
		commit.UserID,
		commit.ItemID,
		commit.CollectionID,
		commit.State.Repetitions,
		commit.State.EaseFactor,
		commit.State.IntervalDays,
		commit.DueAt,
		commit.ReviewedAt,
		commit.WasCorrect,
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrUnsupportedOperation) {
			log.Debug("commit_review procedure unavailable",
				slog.String("item_id", commit.ItemID.String()))
			return mapped
		}
		log.Error("atomic review commit failed",
			slog.String("error", err.Error()),
			slog.String("user_id", commit.UserID.String()),
			slog.String("item_id", commit.ItemID.String()))
		return mapped
	}

	log.Debug("review committed atomically",
		slog.String("user_id", commit.UserID.String()),
		slog.String("item_id", commit.ItemID.String()),
		slog.Int("interval_days", commit.State.IntervalDays))
	return nil
}

// UpsertLearningState implements store.RemoteStore.
// Review counters are left unchanged on update and start at zero on insert.
func (s *PostgresRemoteStore) UpsertLearningState(ctx context.Context, commit store.ReviewCommit) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO learning_states (
			user_id, item_id, collection_id, repetitions, ease_factor, interval_days,
			due_at, last_reviewed_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (user_id, item_id) DO UPDATE SET
			collection_id = EXCLUDED.collection_id,
			repetitions = EXCLUDED.repetitions,
			ease_factor = EXCLUDED.ease_factor,
			interval_days = EXCLUDED.interval_days,
			due_at = EXCLUDED.due_at,
			last_reviewed_at = EXCLUDED.last_reviewed_at,
			updated_at = NOW()
	`
	_, err := s.db.ExecContext(ctx, query,
		commit.UserID,
		commit.ItemID,
		commit.CollectionID,
		commit.State.Repetitions,
		commit.State.EaseFactor,
		commit.State.IntervalDays,
		commit.DueAt,
		commit.ReviewedAt,
	)
	if err != nil {
		log.Error("failed to upsert learning state",
			slog.String("error", err.Error()),
			slog.String("user_id", commit.UserID.String()),
			slog.String("item_id", commit.ItemID.String()))
		return MapError(err)
	}
	return nil
}

// IncrementReviewCounters implements store.RemoteStore.
// Returns store.ErrLearningStateNotFound if no state exists for the pair.
func (s *PostgresRemoteStore) IncrementReviewCounters(
	ctx context.Context,
	userID, itemID uuid.UUID,
	wasCorrect bool,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE learning_states
		SET total_reviews = total_reviews + 1,
			correct_reviews = correct_reviews + CASE WHEN $3::boolean THEN 1 ELSE 0 END,
			updated_at = NOW()
		WHERE user_id = $1 AND item_id = $2
	`
	result, err := s.db.ExecContext(ctx, query, userID, itemID, wasCorrect)
	if err != nil {
		log.Warn("failed to increment review counters",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("item_id", itemID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrLearningStateNotFound)
}

// AppendReviewLog implements store.RemoteStore.
// Returns store.ErrReviewLogExists when an entry with the same ID was already stored.
func (s *PostgresRemoteStore) AppendReviewLog(ctx context.Context, entry domain.ReviewLogEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO review_logs (
			id, user_id, item_id, collection_id, quality,
			ease_factor_before, ease_factor_after, interval_days_before, interval_days_after,
			reviewed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var efBefore sql.NullFloat64
	if entry.EaseFactorBefore != nil {
		efBefore = sql.NullFloat64{Float64: *entry.EaseFactorBefore, Valid: true}
	}
	var intervalBefore sql.NullInt64
	if entry.IntervalDaysBefore != nil {
		intervalBefore = sql.NullInt64{Int64: int64(*entry.IntervalDaysBefore), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.ItemID,
		entry.CollectionID,
		int(entry.Quality),
		efBefore,
		entry.EaseFactorAfter,
		intervalBefore,
		entry.IntervalDaysAfter,
		entry.ReviewedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrReviewLogExists, err)
		}
		log.Error("failed to append review log",
			slog.String("error", err.Error()),
			slog.String("log_id", entry.ID.String()),
			slog.String("item_id", entry.ItemID.String()))
		return MapError(err)
	}
	return nil
}

// FetchReviewLogs implements store.RemoteStore.
func (s *PostgresRemoteStore) FetchReviewLogs(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) ([]domain.ReviewLogEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, item_id, collection_id, quality,
			ease_factor_before, ease_factor_after, interval_days_before, interval_days_after,
			reviewed_at
		FROM review_logs
		WHERE user_id = $1 AND reviewed_at >= $2
		ORDER BY reviewed_at
	`
	rows, err := s.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		log.Error("failed to fetch review logs",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	logs := make([]domain.ReviewLogEntry, 0)
	for rows.Next() {
		var (
			entry          domain.ReviewLogEntry
			quality        int
			efBefore       sql.NullFloat64
			intervalBefore sql.NullInt64
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.ItemID,
			&entry.CollectionID,
			&quality,
			&efBefore,
			&entry.EaseFactorAfter,
			&intervalBefore,
			&entry.IntervalDaysAfter,
			&entry.ReviewedAt,
		); err != nil {
			return nil, MapError(err)
		}
		entry.Quality = domain.Quality(quality)
		if efBefore.Valid {
			ef := efBefore.Float64
			entry.EaseFactorBefore = &ef
		}
		if intervalBefore.Valid {
			interval := int(intervalBefore.Int64)
			entry.IntervalDaysBefore = &interval
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return logs, nil
}

// FetchReviewTimes implements store.RemoteStore.
func (s *PostgresRemoteStore) FetchReviewTimes(ctx context.Context, userID uuid.UUID) ([]time.Time, error) {
	query := `
		SELECT reviewed_at
		FROM review_logs
		WHERE user_id = $1
		ORDER BY reviewed_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to fetch review times",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	times := make([]time.Time, 0)
	for rows.Next() {
		var reviewedAt time.Time
		if err := rows.Scan(&reviewedAt); err != nil {
			return nil, MapError(err)
		}
		times = append(times, reviewedAt)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return times, nil
}

// FetchAggregateCounts implements store.RemoteStore.
// The total, learned and due counts are independent queries issued
// concurrently and merged once all of them return. Every requested collection
// is present in the result, with zero counts when it has no rows.
func (s *PostgresRemoteStore) FetchAggregateCounts(
	ctx context.Context,
	collectionIDs []uuid.UUID,
	userID uuid.UUID,
	now time.Time,
) (map[uuid.UUID]store.AggregateCounts, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result := make(map[uuid.UUID]store.AggregateCounts, len(collectionIDs))
	if len(collectionIDs) == 0 {
		return result, nil
	}

	ids := make([]string, len(collectionIDs))
	for i, id := range collectionIDs {
		ids[i] = id.String()
	}

	var totals, learned, due map[uuid.UUID]int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totals, err = s.countByCollection(gctx, `
			SELECT collection_id, COUNT(*)
			FROM items
			WHERE collection_id = ANY($1::uuid[])
			GROUP BY collection_id`, pq.Array(ids))
		return err
	})
	g.Go(func() (err error) {
		learned, err = s.countByCollection(gctx, `
			SELECT collection_id, COUNT(*)
			FROM learning_states
			WHERE user_id = $1 AND collection_id = ANY($2::uuid[]) AND repetitions > 0
			GROUP BY collection_id`, userID, pq.Array(ids))
		return err
	})
	g.Go(func() (err error) {
		due, err = s.countByCollection(gctx, `
			SELECT collection_id, COUNT(*)
			FROM learning_states
			WHERE user_id = $1 AND collection_id = ANY($2::uuid[]) AND due_at <= $3
			GROUP BY collection_id`, userID, pq.Array(ids), now)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("failed to fetch aggregate counts",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.Int("collections", len(collectionIDs)))
		return nil, err
	}

	for _, id := range collectionIDs {
		result[id] = store.AggregateCounts{
			Total:   totals[id],
			Learned: learned[id],
			Due:     due[id],
		}
	}
	return result, nil
}

func (s *PostgresRemoteStore) countByCollection(
	ctx context.Context,
	query string,
	args ...any,
) (map[uuid.UUID]int, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, MapError(err)
		}
		counts[id] = n
	}
	return counts, MapError(rows.Err())
}
