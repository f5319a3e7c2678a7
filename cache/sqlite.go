package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jonwraymond/queryops/observe"
	"github.com/jonwraymond/queryops/resilience"
)

// SQLiteOptions configures a SQLiteCache.
type SQLiteOptions struct {
	// Clock stamps and expires entries.
	// Default: resilience.SystemClock
	Clock resilience.Clock

	// Logger receives query failures, which Get reports as misses.
	// Default: observe.NopLogger()
	Logger observe.Logger
}

// SQLiteCache stores entries in a SQLite table with the same lazy expiry as
// the other backends.
type SQLiteCache struct {
	db     *sql.DB
	path   string
	clock  resilience.Clock
	logger observe.Logger
}

const sqliteSchema = `CREATE TABLE IF NOT EXISTS entries (
	key       TEXT PRIMARY KEY,
	value     TEXT NOT NULL,
	stored_at INTEGER NOT NULL,
	ttl_ms    INTEGER NOT NULL
)`

// OpenSQLiteCache opens (creating if needed) the database at path. The path
// ":memory:" gives a private in-memory database.
func OpenSQLiteCache(ctx context.Context, path string, opts SQLiteOptions) (*SQLiteCache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrInvalidPath
	}
	if opts.Clock == nil {
		opts.Clock = resilience.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = observe.NopLogger()
	}

	inMemory := path == ":memory:"
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("cache: create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}

	// SQLite only supports one writer at a time; a single connection also
	// keeps an in-memory database alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	stmts := []string{"PRAGMA busy_timeout=5000"}
	if !inMemory {
		stmts = append(stmts, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}
	stmts = append(stmts, sqliteSchema)
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("cache: init database: %w", err)
		}
	}

	return &SQLiteCache{
		db:     db,
		path:   path,
		clock:  opts.Clock,
		logger: opts.Logger.With(observe.Field{Key: "cache.path", Value: path}),
	}, nil
}

// Get retrieves a value. Expired rows are deleted and reported as a miss.
func (c *SQLiteCache) Get(ctx context.Context, key string) (string, bool) {
	var (
		value    string
		storedAt int64
		ttlMS    int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT value, stored_at, ttl_ms FROM entries WHERE key = ?`, key,
	).Scan(&value, &storedAt, &ttlMS)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		c.logger.Warn(ctx, "cache lookup failed", observe.Field{Key: "error", Value: err})
		return "", false
	}

	entry := Entry{
		Value:    value,
		StoredAt: time.UnixMilli(storedAt),
		TTL:      time.Duration(ttlMS) * time.Millisecond,
	}
	if entry.Expired(c.clock.Now()) {
		if _, err := c.db.ExecContext(ctx,
			`DELETE FROM entries WHERE key = ? AND stored_at = ?`, key, storedAt,
		); err != nil {
			c.logger.Warn(ctx, "cache evict failed", observe.Field{Key: "error", Value: err})
		}
		return "", false
	}
	return value, true
}

// Set upserts a value. TTL <= 0 means no caching.
func (c *SQLiteCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO entries (key, value, stored_at, ttl_ms) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			stored_at = excluded.stored_at,
			ttl_ms = excluded.ttl_ms`,
		key, value, c.clock.Now().UnixMilli(), ttl.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("cache: store %q: %w", key, err)
	}
	return nil
}

// Delete removes a value. Idempotent - no error on miss.
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("cache: delete %q: %w", key, err)
	}
	return nil
}

// Clear drops every row.
func (c *SQLiteCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("cache: clear: %w", err)
	}
	return nil
}

// Stats counts stored and stale rows.
func (c *SQLiteCache) Stats(ctx context.Context) (Stats, error) {
	s := Stats{Backend: "sqlite"}
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN ? - stored_at > ttl_ms THEN 1 ELSE 0 END), 0) FROM entries`,
		c.clock.Now().UnixMilli(),
	).Scan(&s.Entries, &s.Expired)
	if err != nil {
		return Stats{}, fmt.Errorf("cache: stats: %w", err)
	}
	return s, nil
}

// Ping checks the database connection.
func (c *SQLiteCache) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

var (
	_ Cache   = (*SQLiteCache)(nil)
	_ Clearer = (*SQLiteCache)(nil)
	_ Statser = (*SQLiteCache)(nil)
	_ Pinger  = (*SQLiteCache)(nil)
)
