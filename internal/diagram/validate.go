package diagram

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/apperr"
)

// Validate checks the structural preconditions of a spec: required fields,
// a recognised layout type, and id uniqueness within each element family.
// Edge endpoints are deliberately not checked here: an overlay may add the
// node an edge refers to, so dangling endpoints are a composition-time
// concern, not a spec-validity one.
func (s *Spec) Validate() error {
	err := validation.ValidateStruct(s,
		validation.Field(&s.ID, validation.Required),
		validation.Field(&s.Title, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidSpec, err)
	}
	if err := s.Layout.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidSpec, err)
	}

	nodeIDs := make(map[string]struct{}, len(s.Nodes))
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if n.ID == "" {
			return fmt.Errorf("%w: node %d has empty id", apperr.ErrInvalidSpec, i)
		}
		if _, dup := nodeIDs[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %q", apperr.ErrInvalidSpec, n.ID)
		}
		nodeIDs[n.ID] = struct{}{}
	}

	edgeIDs := make(map[string]struct{}, len(s.Edges))
	for i := range s.Edges {
		e := &s.Edges[i]
		if e.ID == "" {
			return fmt.Errorf("%w: edge %d has empty id", apperr.ErrInvalidSpec, i)
		}
		if _, dup := edgeIDs[e.ID]; dup {
			return fmt.Errorf("%w: duplicate edge id %q", apperr.ErrInvalidSpec, e.ID)
		}
		if e.From == "" || e.To == "" {
			return fmt.Errorf("%w: edge %q missing endpoint", apperr.ErrInvalidSpec, e.ID)
		}
		edgeIDs[e.ID] = struct{}{}
	}

	overlayIDs := make(map[string]struct{}, len(s.Overlays))
	for i := range s.Overlays {
		o := &s.Overlays[i]
		if o.ID == "" {
			return fmt.Errorf("%w: overlay %d has empty id", apperr.ErrInvalidSpec, i)
		}
		if _, dup := overlayIDs[o.ID]; dup {
			return fmt.Errorf("%w: duplicate overlay id %q", apperr.ErrInvalidSpec, o.ID)
		}
		overlayIDs[o.ID] = struct{}{}
	}

	sceneIDs := make(map[string]struct{}, len(s.Scenes))
	for i := range s.Scenes {
		sc := &s.Scenes[i]
		if sc.ID == "" {
			return fmt.Errorf("%w: scene %d has empty id", apperr.ErrInvalidSpec, i)
		}
		if _, dup := sceneIDs[sc.ID]; dup {
			return fmt.Errorf("%w: duplicate scene id %q", apperr.ErrInvalidSpec, sc.ID)
		}
		sceneIDs[sc.ID] = struct{}{}
	}

	return nil
}

// Validate checks the layout configuration.
func (l Layout) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Type, validation.Required, validation.In(
			LayoutSequence, LayoutFlow, LayoutState, LayoutMatrix, LayoutTimeline,
		)),
	)
}
