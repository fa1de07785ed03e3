package mermaid

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/compose"
	"github.com/starford/ansuz/internal/diagram"
)

// composeFor materializes a spec with the given overlays, failing the test on
// any composition error.
func composeFor(t *testing.T, spec *diagram.Spec, overlayIDs []string) *diagram.Composed {
	t.Helper()
	out, err := compose.New(nil).Compose(spec, overlayIDs)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func sequenceSpec() *diagram.Spec {
	return &diagram.Spec{
		ID:     "gfs-read-path",
		Title:  "GFS Read Path",
		Layout: diagram.Layout{Type: diagram.LayoutSequence},
		Nodes: []diagram.Node{
			{ID: "cs", Type: diagram.NodeChunkserver, Label: "Chunkserver"},
			{ID: "c", Type: diagram.NodeClient, Label: "Client"},
			{ID: "m", Type: diagram.NodeMaster, Label: "Master"},
		},
		Edges: []diagram.Edge{
			{ID: "lookup", From: "c", To: "m", Kind: diagram.EdgeControl, Label: "lookup chunk", Phase: "metadata"},
			{ID: "handle", From: "m", To: "c", Kind: diagram.EdgeControl, Label: "chunk handle", Phase: "metadata"},
			{ID: "read", From: "c", To: "cs", Kind: diagram.EdgeData, Label: "read range", Phase: "data"},
			{ID: "hb", From: "cs", To: "m", Kind: diagram.EdgeHeartbeat, Label: "Heartbeat (Health Monitoring)"},
		},
	}
}

func TestGenerate_UnsupportedLayout(t *testing.T) {
	spec := sequenceSpec()
	c := composeFor(t, spec, nil)
	c.Layout.Type = "mindmap"

	g := &Generator{}
	if _, err := g.Generate(c); !errors.Is(err, apperr.ErrUnsupportedLayout) {
		t.Errorf("err = %v, want ErrUnsupportedLayout", err)
	}
	if _, err := g.Generate(nil); err == nil {
		t.Errorf("nil composed accepted")
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	g := &Generator{}
	c := composeFor(t, sequenceSpec(), nil)

	a, err := g.Generate(c)
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.Generate(c)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("repeated generation differs:\n%s\nvs\n%s", a, b)
	}
}

func TestGenerateSequence_ParticipantTypeOrder(t *testing.T) {
	g := &Generator{}
	out, err := g.Generate(composeFor(t, sequenceSpec(), nil))
	if err != nil {
		t.Fatal(err)
	}

	// Spec lists chunkserver first; emission reorders to client, master,
	// chunkserver.
	ci := strings.Index(out, "participant c as Client")
	mi := strings.Index(out, "participant m as Master")
	si := strings.Index(out, "participant cs as Chunkserver")
	if ci == -1 || mi == -1 || si == -1 {
		t.Fatalf("missing participants in:\n%s", out)
	}
	if !(ci < mi && mi < si) {
		t.Errorf("participant order wrong (client=%d master=%d chunkserver=%d):\n%s", ci, mi, si, out)
	}
}

func TestGenerateSequence_LabelSanitized(t *testing.T) {
	g := &Generator{}
	out, err := g.Generate(composeFor(t, sequenceSpec(), nil))
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out, "cs-)m: Heartbeat Health Monitoring") {
		t.Errorf("heartbeat line missing or unsanitized:\n%s", out)
	}
	if strings.Contains(out, "(Health") {
		t.Errorf("parentheses leaked into output:\n%s", out)
	}
}

func TestGenerateSequence_ArrowsByKind(t *testing.T) {
	g := &Generator{}
	out, err := g.Generate(composeFor(t, sequenceSpec(), nil))
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"c->>m: lookup chunk",
		"m->>c: chunk handle",
		"c-->>cs: read range",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestGenerateSequence_PhaseBlocks(t *testing.T) {
	g := &Generator{}
	out, err := g.Generate(composeFor(t, sequenceSpec(), nil))
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out, "Note over c,m: metadata") {
		t.Errorf("metadata phase note missing:\n%s", out)
	}
	if !strings.Contains(out, "Note over c,cs: data") {
		t.Errorf("data phase note missing:\n%s", out)
	}
	if got := strings.Count(out, "rect rgb"); got != 2 {
		t.Errorf("rect blocks = %d, want 2:\n%s", got, out)
	}
	if got := strings.Count(out, "  end\n"); got != 2 {
		t.Errorf("end lines = %d, want 2:\n%s", got, out)
	}
}

func TestGenerate_DanglingEdgesDropped(t *testing.T) {
	spec := sequenceSpec()
	spec.Overlays = []diagram.Overlay{{
		ID:   "drop-master",
		Diff: diagram.Diff{Remove: &diagram.DiffSelection{NodeIDs: []string{"m"}}},
	}}

	g := &Generator{}
	out, err := g.Generate(composeFor(t, spec, []string{"drop-master"}))
	if err != nil {
		t.Fatal(err)
	}

	if strings.Contains(out, "lookup chunk") || strings.Contains(out, "chunk handle") {
		t.Errorf("edges to removed node still emitted:\n%s", out)
	}
	if !strings.Contains(out, "read range") {
		t.Errorf("surviving edge dropped:\n%s", out)
	}
}

func TestGenerateSequence_CacheHitScenario(t *testing.T) {
	spec := sequenceSpec()
	spec.Overlays = []diagram.Overlay{{
		ID: "cache-hit",
		Diff: diagram.Diff{
			Remove: &diagram.DiffSelection{EdgeIDs: []string{"lookup", "handle"}},
			Add: &diagram.DiffAdd{
				Nodes: []diagram.Node{{ID: "cache", Type: diagram.NodeNote, Label: "client cache"}},
				Edges: []diagram.Edge{{ID: "hit", From: "c", To: "cache", Kind: diagram.EdgeCache, Label: "cached handle"}},
			},
		},
	}}

	g := &Generator{}
	out, err := g.Generate(composeFor(t, spec, []string{"cache-hit"}))
	if err != nil {
		t.Fatal(err)
	}

	if strings.Contains(out, "lookup chunk") {
		t.Errorf("removed edge still emitted:\n%s", out)
	}
	if !strings.Contains(out, "participant cache as client cache") {
		t.Errorf("added node not emitted:\n%s", out)
	}
	if !strings.Contains(out, "c--)cache: cached handle") {
		t.Errorf("added cache edge not emitted:\n%s", out)
	}
}

func flowSpec() *diagram.Spec {
	return &diagram.Spec{
		ID:     "gfs-topology",
		Title:  "GFS Topology",
		Layout: diagram.Layout{Type: diagram.LayoutFlow},
		Nodes: []diagram.Node{
			{ID: "c", Type: diagram.NodeClient, Label: "Client"},
			{ID: "m", Type: diagram.NodeMaster, Label: "Master"},
			{ID: "cs1", Type: diagram.NodeChunkserver, Label: "CS 1"},
		},
		Edges: []diagram.Edge{
			{ID: "ctl", From: "c", To: "m", Kind: diagram.EdgeControl, Label: "control"},
			{ID: "dat", From: "c", To: "cs1", Kind: diagram.EdgeData, Label: "data"},
		},
		Overlays: []diagram.Overlay{
			{
				ID: "hot-path",
				Diff: diagram.Diff{
					Highlight: &diagram.DiffSelection{NodeIDs: []string{"cs1"}, EdgeIDs: []string{"dat"}},
					Add:       &diagram.DiffAdd{Nodes: []diagram.Node{{ID: "cache", Type: diagram.NodeNote, Label: "cache"}}},
				},
			},
		},
	}
}

func TestGenerateFlow_ShapesAndArrows(t *testing.T) {
	g := &Generator{}
	out, err := g.Generate(composeFor(t, flowSpec(), nil))
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"flowchart TD",
		"c([Client])",
		"m[[Master]]",
		"cs1[(CS 1)]",
		"c -->|control| m",
		"c ==>|data| cs1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "classDef") {
		t.Errorf("styling emitted for a plain render:\n%s", out)
	}
}

func TestGenerateFlow_HighlightAndAddedClasses(t *testing.T) {
	g := &Generator{}
	out, err := g.Generate(composeFor(t, flowSpec(), []string{"hot-path"}))
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"classDef highlighted",
		"class cs1 highlighted",
		"classDef added",
		"class cache added",
		"linkStyle 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestGenerateState(t *testing.T) {
	spec := &diagram.Spec{
		ID:     "chunk-lifecycle",
		Title:  "Chunk Lifecycle",
		Layout: diagram.Layout{Type: diagram.LayoutState},
		Nodes: []diagram.Node{
			{ID: "fresh", Label: "Fresh"},
			{ID: "stale", Label: "Stale"},
		},
		Edges: []diagram.Edge{
			{ID: "miss", From: "fresh", To: "stale", Label: "missed heartbeat"},
			{ID: "silent", From: "stale", To: "fresh"},
		},
	}

	g := &Generator{}
	out, err := g.Generate(composeFor(t, spec, nil))
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"stateDiagram-v2",
		`state "Fresh" as fresh`,
		"fresh --> stale: missed heartbeat",
		"stale --> fresh\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestGenerateMatrix_GroupsByType(t *testing.T) {
	spec := &diagram.Spec{
		ID:     "rack-matrix",
		Title:  "Rack Matrix",
		Layout: diagram.Layout{Type: diagram.LayoutMatrix},
		Nodes: []diagram.Node{
			{ID: "cs1", Type: diagram.NodeChunkserver, Label: "CS 1"},
			{ID: "r1", Type: diagram.NodeRack, Label: "Rack 1"},
			{ID: "cs2", Type: diagram.NodeChunkserver, Label: "CS 2"},
		},
		Edges: []diagram.Edge{
			{ID: "in1", From: "cs1", To: "r1"},
			{ID: "in2", From: "cs2", To: "r1"},
		},
	}

	g := &Generator{}
	out, err := g.Generate(composeFor(t, spec, nil))
	if err != nil {
		t.Fatal(err)
	}

	if got := strings.Count(out, "subgraph grp_chunkserver"); got != 1 {
		t.Errorf("chunkserver subgraph count = %d, want 1 (nodes grouped by type):\n%s", got, out)
	}
	if !strings.Contains(out, "subgraph grp_rack") {
		t.Errorf("rack subgraph missing:\n%s", out)
	}
	csGroup := strings.Index(out, "subgraph grp_chunkserver")
	rackGroup := strings.Index(out, "subgraph grp_rack")
	if !(csGroup < rackGroup) {
		t.Errorf("groups not in canonical type order:\n%s", out)
	}
}

func TestGenerateTimeline(t *testing.T) {
	spec := sequenceSpec()
	spec.Layout.Type = diagram.LayoutTimeline

	g := &Generator{}
	out, err := g.Generate(composeFor(t, spec, nil))
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"timeline",
		"title GFS Read Path",
		"section metadata",
		"step 1 : lookup chunk : Client to Master",
		"section data",
		"step 3 : read range : Client to Chunkserver",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestSanitizeID(t *testing.T) {
	cases := []struct{ in, want string }{
		{"cs-1", "cs_1"},
		{"read path", "read_path"},
		{"ok_id9", "ok_id9"},
		{"", "_"},
	}
	for _, tc := range cases {
		if got := sanitizeID(tc.in); got != tc.want {
			t.Errorf("sanitizeID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeLabel(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Heartbeat (Health Monitoring)", "Heartbeat Health Monitoring"},
		{"a|b;c", "a/b,c"},
		{"line1\nline2", "line1 line2"},
		{`say "hi"`, "say 'hi'"},
		{"  padded  ", "padded"},
	}
	for _, tc := range cases {
		if got := sanitizeLabel(tc.in); got != tc.want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
