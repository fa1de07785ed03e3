// Package testutil provides shared test helpers for setting up spec
// libraries and catalog databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/library"
)

// TestDB creates a temporary SQLite catalog that is automatically cleaned up.
func TestDB(t *testing.T) *catalog.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := catalog.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestLibrary creates a temporary library directory with a library.Provider.
func TestLibrary(t *testing.T) (string, library.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := library.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
