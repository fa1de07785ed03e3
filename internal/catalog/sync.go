package catalog

import (
	"log/slog"
	"time"

	"github.com/starford/ansuz/internal/library"
	"github.com/starford/ansuz/internal/specparse"
)

// Sync walks the library and brings the catalog up to date:
//   - new/changed spec files are parsed and upserted
//   - files removed from disk are deleted from the catalog
//
// Files that fail to parse are logged and skipped; a broken spec should not
// take the rest of the library down.
func Sync(db *DB, store library.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteSpec(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses spec data and upserts it into the catalog.
func indexFile(db *DB, path string, data []byte) error {
	res, err := specparse.Parse(data)
	if err != nil {
		return err
	}
	s := res.Spec

	row := SpecRow{
		Path:       path,
		SpecID:     s.ID,
		Title:      s.Title,
		Layout:     string(s.Layout.Type),
		Checksum:   library.Checksum(data),
		NodeCount:  len(s.Nodes),
		EdgeCount:  len(s.Edges),
		SceneCount: len(s.Scenes),
		UpdatedAt:  time.Now(),
	}
	return db.UpsertSpec(row, res.SearchText)
}
