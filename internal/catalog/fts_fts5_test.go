//go:build sqlite_fts5

package catalog

import (
	"testing"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM specs_fts`).Scan(&count); err != nil {
		t.Fatalf("specs_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	row := sampleRow("gfs/read.json", "gfs-read-path", "GFS Read Path")
	if err := db.UpsertSpec(row, "The client caches chunk handles to avoid master round trips."); err != nil {
		t.Fatalf("UpsertSpec: %v", err)
	}

	results, err := db.Search("caches", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].SpecID != "gfs-read-path" {
		t.Errorf("spec id = %q", results[0].SpecID)
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertSpec(sampleRow("gone.json", "gone", "Gone"), "vanishing content")
	_ = db.DeleteSpec("gone.json")

	results, _ := db.Search("vanishing", 10)
	for _, r := range results {
		if r.Path == "gone.json" {
			t.Error("deleted spec still in FTS index")
		}
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertSpec(sampleRow("evo.json", "evo", "Old"), "original text")
	_ = db.UpsertSpec(sampleRow("evo.json", "evo", "New"), "replacement text")

	results, _ := db.Search("original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search("replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}
