package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

// SpecRow represents a row in the specs table.
type SpecRow struct {
	Path       string
	SpecID     string
	Title      string
	Layout     string
	Checksum   string
	NodeCount  int
	EdgeCount  int
	SceneCount int
	UpdatedAt  time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	SpecID  string
	Title   string
	Snippet string
}

// Progress is the study state recorded for one diagram. The zero value means
// never viewed.
type Progress struct {
	SpecID       string
	ViewCount    int
	LastStep     int
	LastViewedAt time.Time
}

// UpsertSpec inserts or replaces a spec row and its FTS entry within a
// transaction.
func (db *DB) UpsertSpec(row SpecRow, searchText string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO specs (path, spec_id, title, layout, checksum, node_count, edge_count, scene_count, search_text, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			spec_id     = excluded.spec_id,
			title       = excluded.title,
			layout      = excluded.layout,
			checksum    = excluded.checksum,
			node_count  = excluded.node_count,
			edge_count  = excluded.edge_count,
			scene_count = excluded.scene_count,
			search_text = excluded.search_text,
			updated_at  = excluded.updated_at
	`, row.Path, row.SpecID, row.Title, row.Layout, row.Checksum,
		row.NodeCount, row.EdgeCount, row.SceneCount, searchText, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("catalog: upsert spec: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, row.Path, row.SpecID, row.Title, searchText); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteSpec removes a spec row and its FTS entry. Progress is kept: a file
// removed from the library may come back, and view counts are cheap.
func (db *DB) DeleteSpec(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM specs WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a spec file, or empty string
// if not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM specs WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed spec file.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM specs`)
	if err != nil {
		return nil, fmt.Errorf("catalog: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListSpecs returns every catalogued spec ordered by title. This is the
// manifest consumers navigate by.
func (db *DB) ListSpecs() ([]SpecRow, error) {
	rows, err := db.conn.Query(`
		SELECT path, spec_id, title, layout, checksum, node_count, edge_count, scene_count, updated_at
		FROM specs
		ORDER BY title, path
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list specs: %w", err)
	}
	defer rows.Close()

	var out []SpecRow
	for rows.Next() {
		var r SpecRow
		if err := rows.Scan(&r.Path, &r.SpecID, &r.Title, &r.Layout, &r.Checksum,
			&r.NodeCount, &r.EdgeCount, &r.SceneCount, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ResolvePath returns the library path of the spec with the given diagram id.
func (db *DB) ResolvePath(specID string) (string, error) {
	var p string
	err := db.conn.QueryRow(`SELECT path FROM specs WHERE spec_id = ? ORDER BY path LIMIT 1`, specID).Scan(&p)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("catalog: spec %q: %w", specID, apperr.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("catalog: resolve path: %w", err)
	}
	return p, nil
}

// RecordView increments the view counter for a diagram.
func (db *DB) RecordView(specID string) error {
	_, err := db.conn.Exec(`
		INSERT INTO progress (spec_id, view_count, last_viewed_at)
		VALUES (?, 1, ?)
		ON CONFLICT(spec_id) DO UPDATE SET
			view_count     = view_count + 1,
			last_viewed_at = excluded.last_viewed_at
	`, specID, time.Now())
	if err != nil {
		return fmt.Errorf("catalog: record view: %w", err)
	}
	return nil
}

// SetLastStep remembers the sequencer position for a diagram.
func (db *DB) SetLastStep(specID string, step int) error {
	_, err := db.conn.Exec(`
		INSERT INTO progress (spec_id, last_step)
		VALUES (?, ?)
		ON CONFLICT(spec_id) DO UPDATE SET last_step = excluded.last_step
	`, specID, step)
	if err != nil {
		return fmt.Errorf("catalog: set last step: %w", err)
	}
	return nil
}

// GetProgress returns the recorded study state for a diagram. A diagram that
// was never viewed yields the zero Progress, not an error.
func (db *DB) GetProgress(specID string) (Progress, error) {
	p := Progress{SpecID: specID}
	var viewedAt sql.NullTime
	err := db.conn.QueryRow(`
		SELECT view_count, last_step, last_viewed_at FROM progress WHERE spec_id = ?
	`, specID).Scan(&p.ViewCount, &p.LastStep, &viewedAt)
	if err == sql.ErrNoRows {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("catalog: get progress: %w", err)
	}
	if viewedAt.Valid {
		p.LastViewedAt = viewedAt.Time
	}
	return p, nil
}

// GetSetting returns the value stored for key, or empty string when unset.
func (db *DB) GetSetting(key string) (string, error) {
	var v string
	err := db.conn.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("catalog: get setting: %w", err)
	}
	return v, nil
}

// SetSetting stores a key-value setting (theme preference and the like).
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("catalog: set setting: %w", err)
	}
	return nil
}
