// Package sqlite provides a persistent webrag.VectorStore backed by SQLite.
// Embeddings are stored in the pgvector text encoding and scored in Go.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/fwojciec/webrag"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB is a SQLite connection holding the vector indexes and site metadata.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB returns a DB for path. Use ":memory:" for a throwaway database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open connects to the database, applies pragmas and creates the schema if
// needed.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return webrag.WrapError(webrag.EINDEX, webrag.ReasonUnavailable, err, "opening %s", db.path)
	}
	// One writer at a time.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return webrag.WrapError(webrag.EINDEX, webrag.ReasonUnavailable, err, "connecting to %s", db.path)
	}

	pragmas := []string{"PRAGMA busy_timeout = 5000", "PRAGMA foreign_keys = ON"}
	// In-memory databases do not support WAL.
	if db.path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return webrag.WrapError(webrag.EINDEX, webrag.ReasonUnavailable, err, "applying %q", p)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return webrag.WrapError(webrag.EINDEX, webrag.ReasonUnavailable, err, "creating schema")
	}
	db.db = conn
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db == nil {
		return nil
	}
	return db.db.Close()
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

// BeginTx starts a transaction.
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, nil)
}

// Chunks and site rows cascade with their index.
const schema = `
		CREATE TABLE IF NOT EXISTS indexes (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			dimension INTEGER NOT NULL,
			published INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS chunks (
			index_id TEXT NOT NULL REFERENCES indexes(id) ON DELETE CASCADE,
			id TEXT NOT NULL,
			source_url TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL,
			sequence_index INTEGER NOT NULL,
			embedding TEXT NOT NULL,
			PRIMARY KEY (index_id, id)
		);

		CREATE TABLE IF NOT EXISTS sites (
			index_id TEXT PRIMARY KEY REFERENCES indexes(id) ON DELETE CASCADE,
			id TEXT NOT NULL,
			url TEXT NOT NULL,
			name TEXT NOT NULL,
			pages INTEGER NOT NULL DEFAULT 0,
			chunks INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			bytes INTEGER NOT NULL DEFAULT 0,
			tokens INTEGER NOT NULL DEFAULT 0,
			indexed_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_indexes_published ON indexes(published);
`
