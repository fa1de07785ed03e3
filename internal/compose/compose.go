// Package compose materializes diagrams by applying ordered overlay diffs to
// a base spec.
package compose

import (
	"fmt"
	"log/slog"

	"github.com/starford/ansuz/internal/diagram"
)

// Composer builds composed diagrams from specs. It holds no per-diagram
// state; a single Composer serves a whole session.
type Composer struct {
	logger *slog.Logger
}

// New creates a Composer. A nil logger disables warning logs (warnings are
// still collected on the result).
func New(logger *slog.Logger) *Composer {
	return &Composer{logger: logger}
}

// Compose applies the overlays named by overlayIDs, in order, to spec and
// returns the materialized diagram.
//
// The input spec is never mutated: every node and edge is deep-copied before
// transient flags are set. Unknown overlay ids and dangling diff references
// are skipped with a warning rather than aborting; a missing overlay is a
// no-op. Composition is deterministic: the same spec and overlay sequence
// always yields an identical result.
func (c *Composer) Compose(spec *diagram.Spec, overlayIDs []string) (*diagram.Composed, error) {
	if spec == nil {
		return nil, fmt.Errorf("compose: nil spec")
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}

	out := diagram.NewComposed(spec)
	for i := range spec.Nodes {
		n := spec.Nodes[i].Clone()
		out.Nodes.Set(n.ID, n)
	}
	for i := range spec.Edges {
		e := spec.Edges[i].Clone()
		out.Edges.Set(e.ID, e)
	}

	for _, id := range overlayIDs {
		ov := spec.Overlay(id)
		if ov == nil {
			c.warn(out, "unknown overlay %q skipped", id)
			continue
		}
		c.applyOverlay(out, ov)
		out.ActiveOverlays = append(out.ActiveOverlays, id)
	}

	return out, nil
}

// applyOverlay applies one overlay diff in the fixed sub-order
// remove → add → highlight → modify. Removals run first so an add in the
// same overlay can reuse a freed id; highlight and modify run after add so
// they see the overlay's own additions.
func (c *Composer) applyOverlay(out *diagram.Composed, ov *diagram.Overlay) {
	if rm := ov.Diff.Remove; rm != nil {
		for _, id := range rm.NodeIDs {
			if _, present := out.Nodes.Delete(id); !present {
				c.warn(out, "overlay %q removes unknown node %q", ov.ID, id)
			}
		}
		for _, id := range rm.EdgeIDs {
			if _, present := out.Edges.Delete(id); !present {
				c.warn(out, "overlay %q removes unknown edge %q", ov.ID, id)
			}
		}
	}

	if add := ov.Diff.Add; add != nil {
		for i := range add.Nodes {
			n := add.Nodes[i].Clone()
			n.Added = true
			// Id collision replaces the existing entry: last writer wins.
			out.Nodes.Set(n.ID, n)
		}
		for i := range add.Edges {
			e := add.Edges[i].Clone()
			e.Added = true
			out.Edges.Set(e.ID, e)
		}
	}

	if hl := ov.Diff.Highlight; hl != nil {
		// Highlight is cosmetic; missing ids are skipped without a warning.
		for _, id := range hl.NodeIDs {
			if n, ok := out.Nodes.Get(id); ok {
				n.Highlighted = true
			}
		}
		for _, id := range hl.EdgeIDs {
			if e, ok := out.Edges.Get(id); ok {
				e.Highlighted = true
			}
		}
	}

	if mod := ov.Diff.Modify; mod != nil {
		for i := range mod.Nodes {
			p := &mod.Nodes[i]
			n, ok := out.Nodes.Get(p.ID)
			if !ok {
				c.warn(out, "overlay %q modifies unknown node %q", ov.ID, p.ID)
				continue
			}
			patchNode(n, p)
		}
		for i := range mod.Edges {
			p := &mod.Edges[i]
			e, ok := out.Edges.Get(p.ID)
			if !ok {
				c.warn(out, "overlay %q modifies unknown edge %q", ov.ID, p.ID)
				continue
			}
			patchEdge(e, p)
		}
	}
}

// patchNode shallow-merges a patch onto a node. Nil patch fields leave the
// target untouched; metadata entries merge key by key.
func patchNode(n *diagram.Node, p *diagram.NodePatch) {
	if p.Type != nil {
		n.Type = *p.Type
	}
	if p.Label != nil {
		n.Label = *p.Label
	}
	if len(p.Metadata) > 0 {
		if n.Metadata == nil {
			n.Metadata = make(map[string]string, len(p.Metadata))
		}
		for k, v := range p.Metadata {
			n.Metadata[k] = v
		}
	}
	n.Modified = true
}

func patchEdge(e *diagram.Edge, p *diagram.EdgePatch) {
	if p.From != nil {
		e.From = *p.From
	}
	if p.To != nil {
		e.To = *p.To
	}
	if p.Kind != nil {
		e.Kind = *p.Kind
	}
	if p.Label != nil {
		e.Label = *p.Label
	}
	if p.Phase != nil {
		e.Phase = *p.Phase
	}
	if len(p.Metrics) > 0 {
		if e.Metrics == nil {
			e.Metrics = make(map[string]string, len(p.Metrics))
		}
		for k, v := range p.Metrics {
			e.Metrics[k] = v
		}
	}
	e.Modified = true
}

func (c *Composer) warn(out *diagram.Composed, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	out.Warnings = append(out.Warnings, msg)
	if c.logger != nil {
		c.logger.Warn("compose: dangling reference", slog.String("detail", msg))
	}
}
