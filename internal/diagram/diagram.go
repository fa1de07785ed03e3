// Package diagram defines the domain types for Ansuz: diagram specs,
// overlays, scenes, and the composed diagrams produced from them.
package diagram

import "encoding/json"

// LayoutType selects the diagram grammar family used for text generation.
type LayoutType string

const (
	LayoutSequence LayoutType = "sequence"
	LayoutFlow     LayoutType = "flow"
	LayoutState    LayoutType = "state"
	LayoutMatrix   LayoutType = "matrix"
	LayoutTimeline LayoutType = "timeline"
)

// NodeType classifies a node for shape selection and participant ordering.
type NodeType string

const (
	NodeClient      NodeType = "client"
	NodeMaster      NodeType = "master"
	NodeChunkserver NodeType = "chunkserver"
	NodeRack        NodeType = "rack"
	NodeSwitch      NodeType = "switch"
	NodeNote        NodeType = "note"
)

// EdgeKind classifies an edge for styling and filtering.
type EdgeKind string

const (
	EdgeControl   EdgeKind = "control"
	EdgeData      EdgeKind = "data"
	EdgeCache     EdgeKind = "cache"
	EdgeHeartbeat EdgeKind = "heartbeat"
)

// Layout holds the layout configuration of a spec.
type Layout struct {
	Type LayoutType `json:"type"`
}

// Node is a vertex in a diagram. The unexported-looking flag fields are
// transient composition state and never round-trip through JSON.
type Node struct {
	ID       string            `json:"id"`
	Type     NodeType          `json:"type"`
	Label    string            `json:"label"`
	Metadata map[string]string `json:"metadata,omitempty"`

	Added       bool `json:"-"`
	Highlighted bool `json:"-"`
	Modified    bool `json:"-"`
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	if n.Metadata != nil {
		c.Metadata = make(map[string]string, len(n.Metadata))
		for k, v := range n.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// Edge is a directed connection between two nodes, referenced by id.
type Edge struct {
	ID      string            `json:"id"`
	From    string            `json:"from"`
	To      string            `json:"to"`
	Kind    EdgeKind          `json:"kind,omitempty"`
	Label   string            `json:"label,omitempty"`
	Phase   string            `json:"phase,omitempty"`
	Metrics map[string]string `json:"metrics,omitempty"`

	Added       bool `json:"-"`
	Highlighted bool `json:"-"`
	Modified    bool `json:"-"`
}

// Clone returns a deep copy of the edge.
func (e *Edge) Clone() *Edge {
	c := *e
	if e.Metrics != nil {
		c.Metrics = make(map[string]string, len(e.Metrics))
		for k, v := range e.Metrics {
			c.Metrics[k] = v
		}
	}
	return &c
}

// Overlay is a named, composable patch applied on top of a base spec.
type Overlay struct {
	ID   string `json:"id"`
	Diff Diff   `json:"diff"`
}

// Diff holds the four optional operations of an overlay. Missing operations
// are nil pointers, so each branch is an explicit check rather than a chain
// of optional lookups.
type Diff struct {
	Remove    *DiffSelection `json:"remove,omitempty"`
	Add       *DiffAdd       `json:"add,omitempty"`
	Highlight *DiffSelection `json:"highlight,omitempty"`
	Modify    *DiffModify    `json:"modify,omitempty"`
}

// DiffAdd lists elements introduced by an overlay.
type DiffAdd struct {
	Nodes []Node `json:"nodes,omitempty"`
	Edges []Edge `json:"edges,omitempty"`
}

// DiffSelection names existing elements by id (used by remove and highlight).
type DiffSelection struct {
	NodeIDs []string `json:"nodeIds,omitempty"`
	EdgeIDs []string `json:"edgeIds,omitempty"`
}

// DiffModify lists partial patches keyed by id.
type DiffModify struct {
	Nodes []NodePatch `json:"nodes,omitempty"`
	Edges []EdgePatch `json:"edges,omitempty"`
}

// NodePatch is a shallow-merge patch for a node. Nil fields are left
// untouched on the target; Metadata entries are merged key by key.
type NodePatch struct {
	ID       string            `json:"id"`
	Type     *NodeType         `json:"type,omitempty"`
	Label    *string           `json:"label,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// EdgePatch is a shallow-merge patch for an edge.
type EdgePatch struct {
	ID      string            `json:"id"`
	From    *string           `json:"from,omitempty"`
	To      *string           `json:"to,omitempty"`
	Kind    *EdgeKind         `json:"kind,omitempty"`
	Label   *string           `json:"label,omitempty"`
	Phase   *string           `json:"phase,omitempty"`
	Metrics map[string]string `json:"metrics,omitempty"`
}

// Scene is a named ordered list of overlays representing one view of a
// diagram.
type Scene struct {
	ID         string   `json:"id"`
	Title      string   `json:"title,omitempty"`
	OverlayIDs []string `json:"overlays"`
	Narrative  string   `json:"narrative,omitempty"`
}

// Spec is the immutable template for one diagram. It is loaded once per
// viewing session and never mutated in place; composition always works on a
// derived copy.
type Spec struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Layout   Layout    `json:"layout"`
	Nodes    []Node    `json:"nodes"`
	Edges    []Edge    `json:"edges"`
	Overlays []Overlay `json:"overlays,omitempty"`
	Scenes   []Scene   `json:"scenes,omitempty"`

	// Pedagogical content. Narrative is indexed for search; Drills and Quiz
	// are carried opaquely for consumers of the raw spec.
	Narrative string          `json:"narrative,omitempty"`
	Drills    json.RawMessage `json:"drills,omitempty"`
	Quiz      json.RawMessage `json:"quiz,omitempty"`
}

// Overlay returns the overlay with the given id, or nil.
func (s *Spec) Overlay(id string) *Overlay {
	for i := range s.Overlays {
		if s.Overlays[i].ID == id {
			return &s.Overlays[i]
		}
	}
	return nil
}

// Scene returns the scene with the given id, or nil.
func (s *Spec) Scene(id string) *Scene {
	for i := range s.Scenes {
		if s.Scenes[i].ID == id {
			return &s.Scenes[i]
		}
	}
	return nil
}
