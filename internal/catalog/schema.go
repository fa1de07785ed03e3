// Package catalog provides the SQLite-backed spec catalog: a manifest of
// the library plus study progress, settings, and optional FTS5 full-text
// search over pedagogical content.
package catalog

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS specs (
	path        TEXT PRIMARY KEY,
	spec_id     TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	layout      TEXT NOT NULL DEFAULT '',
	checksum    TEXT NOT NULL DEFAULT '',
	node_count  INTEGER NOT NULL DEFAULT 0,
	edge_count  INTEGER NOT NULL DEFAULT 0,
	scene_count INTEGER NOT NULL DEFAULT 0,
	search_text TEXT NOT NULL DEFAULT '',
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_specs_spec_id ON specs(spec_id);

CREATE TABLE IF NOT EXISTS progress (
	spec_id        TEXT PRIMARY KEY,
	view_count     INTEGER NOT NULL DEFAULT 0,
	last_step      INTEGER NOT NULL DEFAULT 0,
	last_viewed_at DATETIME
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);
`

// DB wraps a sql.DB with catalog-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
