// Package sqlite provides SQLite-based storage implementations for bookmarks services.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB represents a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string

	// Now returns the current time. Defaults to time.Now; tests may override it.
	Now func() time.Time
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path, Now: time.Now}
}

// Open opens the database connection, applies connection pragmas and runs
// pending migrations.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit to one connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	pragmas := []string{"PRAGMA busy_timeout = 5000", "PRAGMA foreign_keys = ON"}
	// WAL mode is not supported for in-memory databases.
	if db.path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	db.db = conn

	if err := db.migrate(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// BeginTx starts a transaction. Because the pool holds a single connection,
// every statement until Commit or Rollback must go through the returned Tx.
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, nil)
}

// Stats returns database statistics.
func (db *DB) Stats() sql.DBStats {
	return db.db.Stats()
}

// now returns the current time in UTC truncated to the stored precision.
func (db *DB) now() time.Time {
	return db.Now().UTC().Truncate(time.Second)
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return errors.Is(err, sqlite3.CONSTRAINT_UNIQUE)
}

// SchemaVersion returns the number of applied migrations.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := db.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
	return v, err
}

// migrate applies the migrations newer than the database's user_version,
// each in its own transaction.
func (db *DB) migrate() error {
	current, err := db.SchemaVersion(context.Background())
	if err != nil {
		return err
	}

	for i := current; i < len(migrations); i++ {
		tx, err := db.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		// PRAGMA does not accept bind parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// migrations are applied in order and never edited once released.
var migrations = []string{
	`CREATE TABLE items (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		url TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		site_name TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		favicon_url TEXT NOT NULL DEFAULT '',
		published_at TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		favorite INTEGER NOT NULL DEFAULT 0,
		content TEXT NOT NULL DEFAULT '',
		excerpt TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		reading_time INTEGER NOT NULL DEFAULT 0,
		word_count INTEGER NOT NULL DEFAULT 0,
		content_hash TEXT NOT NULL DEFAULT '',
		processing_status TEXT NOT NULL,
		processing_error TEXT NOT NULL DEFAULT '',
		processed_at TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (user_id, url)
	);
	CREATE INDEX idx_items_user_status ON items(user_id, status);`,

	`CREATE TABLE topics (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE (user_id, slug)
	);
	CREATE TABLE item_topics (
		item_id TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		topic_id TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (item_id, topic_id)
	);
	CREATE INDEX idx_item_topics_topic_id ON item_topics(topic_id);`,

	`CREATE TABLE api_keys (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		prefix TEXT NOT NULL,
		key_hash TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL,
		last_used_at TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX idx_api_keys_user_id ON api_keys(user_id);`,

	`CREATE INDEX idx_items_user_processing ON items(user_id, processing_status);`,
}
