package mermaid

import (
	"bytes"
	"fmt"

	"github.com/starford/ansuz/internal/diagram"
)

// generateMatrix renders a matrix layout as a flowchart whose nodes are
// grouped into one subgraph per node type, in canonical type order. Edges
// cross subgraph boundaries, which is how the grid reads.
func (g *Generator) generateMatrix(c *diagram.Composed) string {
	var b bytes.Buffer
	b.WriteString("flowchart LR\n")

	nodes := nodesByType(c)
	openType := diagram.NodeType("")
	closeGroup := func() {
		if openType != "" {
			b.WriteString("  end\n")
			openType = ""
		}
	}
	for _, n := range nodes {
		if n.Type != openType {
			closeGroup()
			b.WriteString(fmt.Sprintf("  subgraph grp_%s[%s]\n", sanitizeID(string(n.Type)), sanitizeID(string(n.Type))))
			openType = n.Type
		}
		b.WriteString(fmt.Sprintf("    %s[%s]\n", sanitizeID(n.ID), nodeLabel(n)))
	}
	closeGroup()

	for _, e := range liveEdges(c) {
		if label := sanitizeLabel(e.Label); label != "" {
			b.WriteString(fmt.Sprintf("  %s %s|%s| %s\n",
				sanitizeID(e.From), flowArrow(e.Kind), label, sanitizeID(e.To)))
		} else {
			b.WriteString(fmt.Sprintf("  %s %s %s\n",
				sanitizeID(e.From), flowArrow(e.Kind), sanitizeID(e.To)))
		}
	}

	return b.String()
}
