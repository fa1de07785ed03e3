// Package specparse decodes and validates diagram spec JSON files and
// extracts their searchable pedagogical text.
package specparse

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/diagram"
)

// Result holds the output of parsing a spec file.
type Result struct {
	Spec *diagram.Spec
	// SearchText is the flattened narrative/drill/quiz text used for
	// full-text indexing. It is not part of the composition model.
	SearchText string
}

// Parse decodes raw spec JSON and validates its structural preconditions.
// Unknown top-level fields are tolerated: pedagogical content the composer
// does not consume still belongs in the file.
func Parse(data []byte) (*Result, error) {
	var spec diagram.Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", apperr.ErrInvalidSpec, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &Result{
		Spec:       &spec,
		SearchText: searchText(&spec),
	}, nil
}

// searchText flattens everything a study search should match: the title,
// narratives, labels, and any strings buried in the opaque drill/quiz blobs.
func searchText(s *diagram.Spec) string {
	var parts []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v != "" {
			parts = append(parts, v)
		}
	}

	add(s.Title)
	add(s.Narrative)
	for i := range s.Scenes {
		add(s.Scenes[i].Title)
		add(s.Scenes[i].Narrative)
	}
	for i := range s.Nodes {
		add(s.Nodes[i].Label)
	}
	for i := range s.Edges {
		add(s.Edges[i].Label)
	}
	add(rawStrings(s.Drills))
	add(rawStrings(s.Quiz))

	return strings.Join(parts, "\n")
}

// rawStrings collects every string value from an opaque JSON blob.
func rawStrings(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	var out []string
	collectStrings(v, &out)
	return strings.Join(out, "\n")
}

func collectStrings(v any, out *[]string) {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			*out = append(*out, s)
		}
	case []any:
		for _, item := range t {
			collectStrings(item, out)
		}
	case map[string]any:
		// Sorted keys keep the flattened text stable across runs.
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectStrings(t[k], out)
		}
	}
}
