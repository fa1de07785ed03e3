package diagram

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Composed is the materialized node/edge state after applying a sequence of
// overlays to a spec. It is ephemeral: produced fresh per render, owned by
// the render call that created it, and discarded after text generation.
//
// Iteration order of the maps is original spec order (minus removals)
// followed by added elements in the order they were added across overlays.
type Composed struct {
	SpecID string
	Title  string
	Layout Layout

	Nodes *orderedmap.OrderedMap[string, *Node]
	Edges *orderedmap.OrderedMap[string, *Edge]

	// ActiveOverlays records the overlay ids applied, in order.
	ActiveOverlays []string
	// Warnings collects dangling-reference diagnostics raised during
	// composition. Warnings never abort a composition.
	Warnings []string
}

// NewComposed returns an empty Composed carrying the spec's identity.
func NewComposed(s *Spec) *Composed {
	return &Composed{
		SpecID: s.ID,
		Title:  s.Title,
		Layout: s.Layout,
		Nodes:  orderedmap.New[string, *Node](),
		Edges:  orderedmap.New[string, *Edge](),
	}
}

// Node returns the node with the given id, or nil.
func (c *Composed) Node(id string) *Node {
	n, _ := c.Nodes.Get(id)
	return n
}

// Edge returns the edge with the given id, or nil.
func (c *Composed) Edge(id string) *Edge {
	e, _ := c.Edges.Get(id)
	return e
}

// NodeList returns the nodes in iteration order.
func (c *Composed) NodeList() []*Node {
	out := make([]*Node, 0, c.Nodes.Len())
	for pair := c.Nodes.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// EdgeList returns the edges in iteration order.
func (c *Composed) EdgeList() []*Edge {
	out := make([]*Edge, 0, c.Edges.Len())
	for pair := c.Edges.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}
