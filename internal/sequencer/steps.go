package sequencer

import "github.com/starford/ansuz/internal/diagram"

// StepKind distinguishes how a step materializes its diagram.
type StepKind string

const (
	// StepScene applies a scene's overlay list to the base spec.
	StepScene StepKind = "scene"
	// StepReveal shows the base diagram with only the first EdgeCount edges.
	StepReveal StepKind = "reveal"
	// StepFull shows the whole base diagram (single-step specs).
	StepFull StepKind = "full"
)

// Step is one position in a scripted walkthrough.
type Step struct {
	Kind       StepKind
	Title      string
	Narrative  string
	OverlayIDs []string // scene steps
	EdgeCount  int      // reveal steps: edges visible, in spec order
}

// BuildSteps derives the walkthrough for a spec. Specs with scenes step
// through them in order; sequence diagrams without scenes step through
// cumulative edge reveals; anything else is a single full view.
func BuildSteps(spec *diagram.Spec) []Step {
	if len(spec.Scenes) > 0 {
		steps := make([]Step, 0, len(spec.Scenes))
		for i := range spec.Scenes {
			sc := &spec.Scenes[i]
			title := sc.Title
			if title == "" {
				title = sc.ID
			}
			steps = append(steps, Step{
				Kind:       StepScene,
				Title:      title,
				Narrative:  sc.Narrative,
				OverlayIDs: append([]string(nil), sc.OverlayIDs...),
			})
		}
		return steps
	}

	if spec.Layout.Type == diagram.LayoutSequence && len(spec.Edges) > 0 {
		steps := make([]Step, 0, len(spec.Edges))
		for i := range spec.Edges {
			title := spec.Edges[i].Label
			if title == "" {
				title = spec.Edges[i].ID
			}
			steps = append(steps, Step{
				Kind:      StepReveal,
				Title:     title,
				EdgeCount: i + 1,
			})
		}
		return steps
	}

	return []Step{{Kind: StepFull, Title: spec.Title}}
}
