// Package sequencer walks the scripted steps of a diagram spec, driving the
// composer and text generator per step.
package sequencer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/ansuz/internal/compose"
	"github.com/starford/ansuz/internal/diagram"
	"github.com/starford/ansuz/internal/events"
	"github.com/starford/ansuz/internal/mermaid"
)

// RenderedStep is the output of rendering one walkthrough position.
type RenderedStep struct {
	Step     Step
	Index    int
	Total    int
	Text     string
	Warnings []string
}

// Sequencer holds the walkthrough position for one diagram. Next, Prev, and
// GoTo clamp at the bounds: stepping past the end is a no-op, not an error.
// Auto-play runs on a ticker that Stop, Close, and context cancellation all
// cancel, so a navigated-away sequencer never leaks its timer.
type Sequencer struct {
	spec     *diagram.Spec
	steps    []Step
	composer *compose.Composer
	gen      *mermaid.Generator
	broker   *events.Broker
	logger   *slog.Logger

	mu         sync.Mutex
	index      int
	playCancel context.CancelFunc
	closed     bool
}

// New builds a sequencer for spec. broker may be nil; step changes are then
// observable only through the returned RenderedSteps.
func New(spec *diagram.Spec, composer *compose.Composer, gen *mermaid.Generator, broker *events.Broker, logger *slog.Logger) (*Sequencer, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &Sequencer{
		spec:     spec,
		steps:    BuildSteps(spec),
		composer: composer,
		gen:      gen,
		broker:   broker,
		logger:   logger,
	}, nil
}

// Len returns the number of steps.
func (s *Sequencer) Len() int { return len(s.steps) }

// Index returns the current step index.
func (s *Sequencer) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Steps returns the walkthrough script.
func (s *Sequencer) Steps() []Step { return s.steps }

// Current renders the current step without moving.
func (s *Sequencer) Current() (*RenderedStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.render(s.index)
}

// Next advances one step, clamping at the last step.
func (s *Sequencer) Next() (*RenderedStep, error) {
	return s.GoTo(s.Index() + 1)
}

// Prev moves back one step, clamping at the first step.
func (s *Sequencer) Prev() (*RenderedStep, error) {
	return s.GoTo(s.Index() - 1)
}

// GoTo jumps to the given index, clamped to the valid range, renders the
// step, and publishes a step.changed event.
func (s *Sequencer) GoTo(index int) (*RenderedStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 {
		index = 0
	}
	if index > len(s.steps)-1 {
		index = len(s.steps) - 1
	}
	s.index = index

	rs, err := s.render(index)
	if err != nil {
		return nil, err
	}
	s.publish(rs)
	return rs, nil
}

// Play starts auto-advancing on a ticker until the last step is reached, the
// context is cancelled, or Stop/Close is called. Calling Play while already
// playing restarts the timer.
func (s *Sequencer) Play(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.playCancel != nil {
		s.playCancel()
	}
	playCtx, cancel := context.WithCancel(ctx)
	s.playCancel = cancel
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-playCtx.Done():
				return
			case <-ticker.C:
				if !s.advance() {
					cancel()
					return
				}
			}
		}
	}()
}

// advance moves one step forward, reporting false at the last step.
func (s *Sequencer) advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.index >= len(s.steps)-1 {
		return false
	}
	s.index++
	rs, err := s.render(s.index)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("sequencer: render failed", slog.Int("index", s.index), slog.String("error", err.Error()))
		}
		return false
	}
	s.publish(rs)
	return true
}

// Stop cancels auto-play if it is running. Navigation state is kept.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playCancel != nil {
		s.playCancel()
		s.playCancel = nil
	}
}

// Close stops auto-play and marks the sequencer unusable for playback.
// Idempotent; this is the teardown contract that keeps timers from leaking
// on navigation-away.
func (s *Sequencer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playCancel != nil {
		s.playCancel()
		s.playCancel = nil
	}
	s.closed = true
}

// render composes and generates the diagram for one step. Callers hold s.mu.
func (s *Sequencer) render(index int) (*RenderedStep, error) {
	step := s.steps[index]

	var composed *diagram.Composed
	var err error
	switch step.Kind {
	case StepScene:
		composed, err = s.composer.Compose(s.spec, step.OverlayIDs)
	default:
		composed, err = s.composer.Compose(s.spec, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("sequencer: step %d: %w", index, err)
	}

	if step.Kind == StepReveal {
		truncateEdges(composed, step.EdgeCount)
	}

	text, err := s.gen.Generate(composed)
	if err != nil {
		return nil, fmt.Errorf("sequencer: step %d: %w", index, err)
	}

	return &RenderedStep{
		Step:     step,
		Index:    index,
		Total:    len(s.steps),
		Text:     text,
		Warnings: composed.Warnings,
	}, nil
}

// truncateEdges keeps only the first n edges of the composed diagram.
func truncateEdges(c *diagram.Composed, n int) {
	var drop []string
	i := 0
	for pair := c.Edges.Oldest(); pair != nil; pair = pair.Next() {
		if i >= n {
			drop = append(drop, pair.Key)
		}
		i++
	}
	for _, id := range drop {
		c.Edges.Delete(id)
	}
}

func (s *Sequencer) publish(rs *RenderedStep) {
	if s.broker == nil {
		return
	}
	s.broker.PublishStep(events.StepChange{
		SpecID: s.spec.ID,
		Index:  rs.Index,
		Total:  rs.Total,
		Title:  rs.Step.Title,
		Text:   rs.Text,
	})
}
