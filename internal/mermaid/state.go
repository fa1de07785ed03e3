package mermaid

import (
	"bytes"
	"fmt"

	"github.com/starford/ansuz/internal/diagram"
)

// generateState emits a stateDiagram-v2: one state declaration per node and
// one transition per live edge, labelled with the edge label.
func (g *Generator) generateState(c *diagram.Composed) string {
	var b bytes.Buffer
	b.WriteString("stateDiagram-v2\n")

	for _, n := range c.NodeList() {
		b.WriteString(fmt.Sprintf("  state \"%s\" as %s\n", nodeLabel(n), sanitizeID(n.ID)))
	}

	for _, e := range liveEdges(c) {
		if label := sanitizeLabel(e.Label); label != "" {
			b.WriteString(fmt.Sprintf("  %s --> %s: %s\n",
				sanitizeID(e.From), sanitizeID(e.To), label))
		} else {
			b.WriteString(fmt.Sprintf("  %s --> %s\n",
				sanitizeID(e.From), sanitizeID(e.To)))
		}
	}

	return b.String()
}
