//go:build sqlite_fts5

package catalog

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS specs_fts USING fts5(
			path UNINDEXED,
			spec_id UNINDEXED,
			title,
			content,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, path, specID, title, content string) error {
	_, _ = tx.Exec(`DELETE FROM specs_fts WHERE path = ?`, path)
	_, err := tx.Exec(`INSERT INTO specs_fts (path, spec_id, title, content) VALUES (?, ?, ?, ?)`,
		path, specID, title, content)
	if err != nil {
		return fmt.Errorf("catalog: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM specs_fts WHERE path = ?`, path)
}

// Search performs an FTS5 full-text search over titles and pedagogical
// content and returns matching results with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT path,
		       spec_id,
		       title,
		       snippet(specs_fts, 3, '<b>', '</b>', '...', 64)
		FROM specs_fts
		WHERE specs_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.SpecID, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
