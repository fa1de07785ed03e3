package mermaid

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/diagram"
)

// nodeShape wraps a label in the Mermaid flowchart shape for a node type.
func nodeShape(t diagram.NodeType, label string) string {
	switch t {
	case diagram.NodeClient:
		return fmt.Sprintf("([%s])", label)
	case diagram.NodeMaster:
		return fmt.Sprintf("[[%s]]", label)
	case diagram.NodeChunkserver:
		return fmt.Sprintf("[(%s)]", label)
	case diagram.NodeSwitch:
		return fmt.Sprintf("{{%s}}", label)
	case diagram.NodeNote:
		return fmt.Sprintf(">%s]", label)
	default:
		return fmt.Sprintf("[%s]", label)
	}
}

// flowArrow maps an edge kind to a Mermaid flowchart link.
func flowArrow(k diagram.EdgeKind) string {
	switch k {
	case diagram.EdgeData:
		return "==>"
	case diagram.EdgeCache, diagram.EdgeHeartbeat:
		return "-.->"
	default:
		return "-->"
	}
}

// generateFlow emits a flowchart: one declaration per node with a shape
// keyed by type, one link per live edge, and class/link styling for
// highlighted and added elements.
func (g *Generator) generateFlow(c *diagram.Composed) string {
	var b bytes.Buffer
	b.WriteString("flowchart TD\n")

	var highlighted, added []string
	for _, n := range c.NodeList() {
		b.WriteString(fmt.Sprintf("  %s%s\n", sanitizeID(n.ID), nodeShape(n.Type, nodeLabel(n))))
		if n.Highlighted {
			highlighted = append(highlighted, sanitizeID(n.ID))
		}
		if n.Added {
			added = append(added, sanitizeID(n.ID))
		}
	}

	var hotLinks []int
	for i, e := range liveEdges(c) {
		arrow := flowArrow(e.Kind)
		if label := sanitizeLabel(e.Label); label != "" {
			b.WriteString(fmt.Sprintf("  %s %s|%s| %s\n",
				sanitizeID(e.From), arrow, label, sanitizeID(e.To)))
		} else {
			b.WriteString(fmt.Sprintf("  %s %s %s\n",
				sanitizeID(e.From), arrow, sanitizeID(e.To)))
		}
		if e.Highlighted || e.Added {
			hotLinks = append(hotLinks, i)
		}
	}

	if len(highlighted) > 0 || len(added) > 0 {
		b.WriteString("\n")
	}
	if len(highlighted) > 0 {
		b.WriteString("  classDef highlighted stroke:#f59e0b,stroke-width:3px\n")
		b.WriteString("  class " + strings.Join(highlighted, ",") + " highlighted\n")
	}
	if len(added) > 0 {
		b.WriteString("  classDef added stroke:#10b981,stroke-dasharray:4 2\n")
		b.WriteString("  class " + strings.Join(added, ",") + " added\n")
	}
	for _, i := range hotLinks {
		b.WriteString(fmt.Sprintf("  linkStyle %d stroke:#f59e0b,stroke-width:3px\n", i))
	}

	return b.String()
}
