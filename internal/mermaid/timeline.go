package mermaid

import (
	"bytes"
	"fmt"

	"github.com/starford/ansuz/internal/diagram"
)

// generateTimeline emits a timeline: live edges become events in edge-map
// order, grouped into sections by their phase tag when one is present.
func (g *Generator) generateTimeline(c *diagram.Composed) string {
	var b bytes.Buffer
	b.WriteString("timeline\n")
	if title := sanitizeLabel(c.Title); title != "" {
		b.WriteString(fmt.Sprintf("  title %s\n", title))
	}

	openSection := ""
	for i, e := range liveEdges(c) {
		if phase := sanitizeLabel(e.Phase); phase != "" && phase != openSection {
			b.WriteString(fmt.Sprintf("  section %s\n", phase))
			openSection = phase
		}
		label := sanitizeLabel(e.Label)
		if label == "" {
			label = sanitizeID(e.ID)
		}
		fromLabel := sanitizeID(e.From)
		toLabel := sanitizeID(e.To)
		if n := c.Node(e.From); n != nil {
			fromLabel = nodeLabel(n)
		}
		if n := c.Node(e.To); n != nil {
			toLabel = nodeLabel(n)
		}
		b.WriteString(fmt.Sprintf("    step %d : %s : %s to %s\n", i+1, label, fromLabel, toLabel))
	}

	return b.String()
}
