package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id            TEXT PRIMARY KEY,
	collection_id TEXT NOT NULL,
	term          TEXT NOT NULL,
	meaning       TEXT NOT NULL,
	pronunciation TEXT NOT NULL DEFAULT '',
	example       TEXT NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL,
	position      INTEGER NOT NULL,
	cached_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_collection ON items (collection_id, position);

CREATE TABLE IF NOT EXISTS learning_states (
	user_id          TEXT NOT NULL,
	item_id          TEXT NOT NULL,
	collection_id    TEXT NOT NULL,
	repetitions      INTEGER NOT NULL,
	ease_factor      REAL NOT NULL,
	interval_days    INTEGER NOT NULL,
	due_at           INTEGER NOT NULL,
	last_reviewed_at INTEGER,
	total_reviews    INTEGER NOT NULL DEFAULT 0,
	correct_reviews  INTEGER NOT NULL DEFAULT 0,
	cached_at        INTEGER NOT NULL,
	PRIMARY KEY (user_id, item_id)
);
CREATE INDEX IF NOT EXISTS idx_learning_states_user_collection ON learning_states (user_id, collection_id);

CREATE TABLE IF NOT EXISTS collection_stats (
	user_id       TEXT NOT NULL,
	collection_id TEXT NOT NULL,
	total         INTEGER NOT NULL,
	learned       INTEGER NOT NULL,
	due           INTEGER NOT NULL,
	new_items     INTEGER NOT NULL,
	cached_at     INTEGER NOT NULL,
	PRIMARY KEY (user_id, collection_id)
);

CREATE TABLE IF NOT EXISTS cache_metadata (
	key           TEXT PRIMARY KEY,
	partition     TEXT NOT NULL,
	user_id       TEXT NOT NULL DEFAULT '',
	collection_id TEXT NOT NULL,
	last_sync     INTEGER NOT NULL,
	version       INTEGER NOT NULL
);
`

func init() {
	// The modernc driver registers as "sqlite", which sqlx does not know.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// schemaVersion is stamped on every metadata row.
const schemaVersion = 1

// DefaultPath returns the cache location under the user cache directory,
// falling back to the working directory.
func DefaultPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "scry-vocab-cache.db"
	}
	return filepath.Join(dir, "scry-vocab", "cache.db")
}

// Open connects to the SQLite database at dsn, applies pragmas and creates the
// schema. Parent directories of file paths are created as needed.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	if dsn != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	// Pragmas and in-memory databases are per connection.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return db, nil
}

func applyPragmas(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}
