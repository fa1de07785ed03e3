package mermaid

import (
	"bytes"
	"fmt"

	"github.com/starford/ansuz/internal/diagram"
)

// sequenceArrow maps an edge kind to a Mermaid sequence message arrow.
func sequenceArrow(k diagram.EdgeKind) string {
	switch k {
	case diagram.EdgeData:
		return "-->>"
	case diagram.EdgeCache:
		return "--)"
	case diagram.EdgeHeartbeat:
		return "-)"
	default:
		return "->>"
	}
}

// generateSequence emits a sequenceDiagram: participants in canonical type
// order, then one message line per edge in edge-map order, with consecutive
// edges sharing a phase tag grouped into a labelled rect block.
func (g *Generator) generateSequence(c *diagram.Composed) string {
	var b bytes.Buffer
	b.WriteString("sequenceDiagram\n")

	for _, n := range nodesByType(c) {
		b.WriteString(fmt.Sprintf("  participant %s as %s\n", sanitizeID(n.ID), nodeLabel(n)))
	}

	edges := liveEdges(c)
	if len(edges) > 0 {
		b.WriteString("\n")
	}

	openPhase := ""
	closePhase := func() {
		if openPhase != "" {
			b.WriteString("  end\n")
			openPhase = ""
		}
	}
	for _, e := range edges {
		phase := sanitizeLabel(e.Phase)
		if phase != openPhase {
			closePhase()
			if phase != "" {
				b.WriteString("  rect rgb(245, 245, 245)\n")
				b.WriteString(fmt.Sprintf("  Note over %s,%s: %s\n",
					sanitizeID(e.From), sanitizeID(e.To), phase))
				openPhase = phase
			}
		}
		label := sanitizeLabel(e.Label)
		if label == "" {
			label = sanitizeID(e.ID)
		}
		b.WriteString(fmt.Sprintf("  %s%s%s: %s\n",
			sanitizeID(e.From), sequenceArrow(e.Kind), sanitizeID(e.To), label))
	}
	closePhase()

	return b.String()
}
