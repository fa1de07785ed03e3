// Package mermaid renders composed diagrams into Mermaid text, branching on
// the spec's layout type.
package mermaid

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/diagram"
)

// Generator turns a composed diagram into Mermaid-flavored text. The output
// string is the sole contract with the external renderer; the generator owns
// label sanitization so that no grammar-significant characters reach the
// emitted lines.
type Generator struct{}

// Generate renders c according to its layout type. Generation is idempotent:
// the same composed diagram always yields byte-identical text. Unknown
// layout types fail with apperr.ErrUnsupportedLayout instead of silently
// falling back, so spec authoring errors surface.
func (g *Generator) Generate(c *diagram.Composed) (string, error) {
	if c == nil {
		return "", fmt.Errorf("mermaid: nil composed diagram")
	}
	switch c.Layout.Type {
	case diagram.LayoutSequence:
		return g.generateSequence(c), nil
	case diagram.LayoutFlow:
		return g.generateFlow(c), nil
	case diagram.LayoutState:
		return g.generateState(c), nil
	case diagram.LayoutMatrix:
		return g.generateMatrix(c), nil
	case diagram.LayoutTimeline:
		return g.generateTimeline(c), nil
	default:
		return "", fmt.Errorf("mermaid: %w: %q", apperr.ErrUnsupportedLayout, c.Layout.Type)
	}
}

var labelSanitizer = strings.NewReplacer(
	"(", "", ")", "",
	"[", "", "]", "",
	"{", "", "}", "",
	"|", "/",
	";", ",",
	"\"", "'",
	"`", "'",
	"\n", " ",
	"\r", " ",
)

// sanitizeLabel strips characters that are syntactically significant to the
// Mermaid grammar. Unescaped parentheses in labels broke real renders, so
// every emitted label goes through here.
func sanitizeLabel(s string) string {
	return strings.TrimSpace(labelSanitizer.Replace(s))
}

// sanitizeID reduces an id to the identifier alphabet Mermaid accepts.
func sanitizeID(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// nodeLabel returns the sanitized display label, falling back to the id.
func nodeLabel(n *diagram.Node) string {
	if l := sanitizeLabel(n.Label); l != "" {
		return l
	}
	return sanitizeID(n.ID)
}

// typeRank orders node types for participant emission: callers first, then
// coordinators, then storage, with annotations last.
func typeRank(t diagram.NodeType) int {
	switch t {
	case diagram.NodeClient:
		return 0
	case diagram.NodeMaster:
		return 1
	case diagram.NodeChunkserver:
		return 2
	case diagram.NodeRack:
		return 3
	case diagram.NodeSwitch:
		return 4
	case diagram.NodeNote:
		return 5
	default:
		return 6
	}
}

// nodesByType returns the nodes sorted by canonical type order, ties broken
// by composed iteration order (which preserves spec order).
func nodesByType(c *diagram.Composed) []*diagram.Node {
	nodes := c.NodeList()
	sort.SliceStable(nodes, func(i, j int) bool {
		return typeRank(nodes[i].Type) < typeRank(nodes[j].Type)
	})
	return nodes
}

// liveEdges returns the edges whose endpoints are both present in the
// composed diagram. Removing a node does not cascade to its edges at
// composition time, so the generator drops dangling edges here. Passing
// them through would make the external renderer error.
func liveEdges(c *diagram.Composed) []*diagram.Edge {
	var out []*diagram.Edge
	for _, e := range c.EdgeList() {
		if c.Node(e.From) == nil || c.Node(e.To) == nil {
			continue
		}
		out = append(out, e)
	}
	return out
}
