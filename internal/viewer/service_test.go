package viewer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/library"
	"github.com/starford/ansuz/internal/testutil"
)

const readPathSpec = `{
  "id": "gfs-read-path",
  "title": "GFS Read Path",
  "layout": {"type": "sequence"},
  "nodes": [
    {"id": "c", "type": "client", "label": "Client"},
    {"id": "m", "type": "master", "label": "Master"},
    {"id": "cs", "type": "chunkserver", "label": "Chunkserver"}
  ],
  "edges": [
    {"id": "lookup", "from": "c", "to": "m", "label": "lookup chunk"},
    {"id": "handle", "from": "m", "to": "c", "label": "chunk handle"},
    {"id": "read", "from": "c", "to": "cs", "kind": "data", "label": "read range"}
  ],
  "overlays": [
    {"id": "cache-hit", "diff": {"remove": {"edgeIds": ["lookup", "handle"]}}}
  ],
  "scenes": [
    {"id": "cold", "title": "Cold cache", "overlays": []},
    {"id": "warm", "title": "Warm cache", "overlays": ["cache-hit"]}
  ],
  "narrative": "the client caches chunk handles"
}`

func testService(t *testing.T) (*Service, library.Provider, catalog.SpecCatalog) {
	t.Helper()
	_, store := testutil.TestLibrary(t)
	db := testutil.TestDB(t)

	if err := store.Write("gfs/read.json", []byte(readPathSpec)); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if err := catalog.Sync(db, store, logger); err != nil {
		t.Fatal(err)
	}

	return NewService(store, db, nil, logger), store, db
}

func TestLoadSpecAndReadSource(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	spec, err := svc.LoadSpec(ctx, "gfs-read-path")
	if err != nil {
		t.Fatal(err)
	}
	if spec.Title != "GFS Read Path" || len(spec.Nodes) != 3 {
		t.Errorf("spec = %+v", spec)
	}

	raw, err := svc.ReadSource(ctx, "gfs-read-path")
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != readPathSpec {
		t.Errorf("raw source does not round-trip")
	}

	if _, err := svc.LoadSpec(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReadSource_FileGoneAfterCatalog(t *testing.T) {
	svc, store, _ := testService(t)

	// Catalog still resolves the path but the file has vanished underneath.
	if err := store.Delete("gfs/read.json"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.ReadSource(context.Background(), "gfs-read-path")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListDiagrams(t *testing.T) {
	svc, _, _ := testService(t)

	rows, err := svc.ListDiagrams(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].SpecID != "gfs-read-path" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestRenderBaseAndScene(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	base, err := svc.RenderBase(ctx, "gfs-read-path")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(base.Text, "sequenceDiagram") || !strings.Contains(base.Text, "lookup chunk") {
		t.Errorf("base render = %q", base.Text)
	}
	if base.SpecID != "gfs-read-path" || base.Title != "GFS Read Path" {
		t.Errorf("render identity = %+v", base)
	}

	warm, err := svc.RenderScene(ctx, "gfs-read-path", "warm")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(warm.Text, "lookup chunk") {
		t.Errorf("warm scene still shows removed edge:\n%s", warm.Text)
	}

	if _, err := svc.RenderScene(ctx, "gfs-read-path", "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown scene err = %v, want ErrNotFound", err)
	}
}

func TestRenderOverlays_WarningsSurface(t *testing.T) {
	svc, _, _ := testService(t)

	res, err := svc.RenderOverlays(context.Background(), "gfs-read-path", []string{"bogus"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "bogus") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestRenderRecordsView(t *testing.T) {
	svc, _, db := testService(t)
	ctx := context.Background()

	if _, err := svc.RenderBase(ctx, "gfs-read-path"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RenderScene(ctx, "gfs-read-path", "warm"); err != nil {
		t.Fatal(err)
	}

	p, err := db.GetProgress("gfs-read-path")
	if err != nil {
		t.Fatal(err)
	}
	if p.ViewCount != 2 {
		t.Errorf("view count = %d, want 2", p.ViewCount)
	}
}

func TestNewSequencerRestoresLastStep(t *testing.T) {
	svc, _, db := testService(t)
	ctx := context.Background()

	if err := db.SetLastStep("gfs-read-path", 1); err != nil {
		t.Fatal(err)
	}

	seq, err := svc.NewSequencer(ctx, "gfs-read-path")
	if err != nil {
		t.Fatal(err)
	}
	defer seq.Close()

	if seq.Index() != 1 {
		t.Errorf("restored index = %d, want 1", seq.Index())
	}

	if err := svc.SaveStep(ctx, "gfs-read-path", 0); err != nil {
		t.Fatal(err)
	}
	p, _ := svc.Progress(ctx, "gfs-read-path")
	if p.LastStep != 0 {
		t.Errorf("saved step = %d, want 0", p.LastStep)
	}
}

func TestSaveSpec(t *testing.T) {
	svc, store, db := testService(t)
	ctx := context.Background()

	newSpec := `{"id": "gfs-heartbeat", "title": "Heartbeats", "layout": {"type": "flow"},
		"nodes": [{"id": "m", "type": "master", "label": "Master"}]}`
	cs, err := svc.SaveSpec(ctx, "gfs/heartbeat.json", []byte(newSpec), "")
	if err != nil {
		t.Fatal(err)
	}
	if cs != library.Checksum([]byte(newSpec)) {
		t.Errorf("checksum = %q, want content checksum", cs)
	}

	// The new spec is immediately resolvable and readable.
	if p, err := db.ResolvePath("gfs-heartbeat"); err != nil || p != "gfs/heartbeat.json" {
		t.Errorf("ResolvePath = %q, %v", p, err)
	}
	got, err := store.Read("gfs/heartbeat.json")
	if err != nil || string(got) != newSpec {
		t.Errorf("stored content = %q, %v", got, err)
	}
}

func TestSaveSpec_ChecksumGuard(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	updated := strings.Replace(readPathSpec, "GFS Read Path", "GFS Read Path v2", 1)

	// Stale checksum is rejected.
	if _, err := svc.SaveSpec(ctx, "gfs/read.json", []byte(updated), "stale"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}

	// Matching checksum goes through.
	cur := library.Checksum([]byte(readPathSpec))
	if _, err := svc.SaveSpec(ctx, "gfs/read.json", []byte(updated), cur); err != nil {
		t.Fatalf("SaveSpec with matching checksum: %v", err)
	}

	rows, _ := svc.ListDiagrams(ctx)
	if len(rows) != 1 || rows[0].Title != "GFS Read Path v2" {
		t.Errorf("rows = %+v, want reindexed title", rows)
	}
}

func TestSaveSpec_RejectsInvalid(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	if _, err := svc.SaveSpec(ctx, "bad.json", []byte(`{"id": "x"`), ""); !errors.Is(err, apperr.ErrInvalidSpec) {
		t.Errorf("malformed content: err = %v, want ErrInvalidSpec", err)
	}
	if _, err := svc.SaveSpec(ctx, "bad.txt", []byte(readPathSpec), ""); err == nil {
		t.Error("non-json path accepted")
	}
}

func TestSearch(t *testing.T) {
	svc, _, _ := testService(t)

	hits, err := svc.Search(context.Background(), "chunk handles", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].SpecID != "gfs-read-path" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestTheme(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	theme, err := svc.Theme(ctx)
	if err != nil || theme != ThemeLight {
		t.Errorf("default theme = %q, %v, want light", theme, err)
	}

	if err := svc.SetTheme(ctx, ThemeDark); err != nil {
		t.Fatal(err)
	}
	if theme, _ := svc.Theme(ctx); theme != ThemeDark {
		t.Errorf("theme = %q, want dark", theme)
	}

	if err := svc.SetTheme(ctx, "sepia"); err == nil {
		t.Error("invalid theme accepted")
	}
}
