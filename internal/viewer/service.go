// Package viewer coordinates the library, catalog, composer, and generator
// for one viewing session. A Service is the session's explicit context
// object; nothing in Ansuz relies on package-level singletons.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/compose"
	"github.com/starford/ansuz/internal/diagram"
	"github.com/starford/ansuz/internal/events"
	"github.com/starford/ansuz/internal/library"
	"github.com/starford/ansuz/internal/mermaid"
	"github.com/starford/ansuz/internal/sequencer"
	"github.com/starford/ansuz/internal/specparse"
)

// Theme values accepted by SetTheme.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

const themeKey = "theme"

// RenderResult is the outcome of one render call. Failures are isolated per
// render: a broken diagram never takes down the session.
type RenderResult struct {
	SpecID   string   `json:"spec_id"`
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Warnings []string `json:"warnings,omitempty"`
}

// Service coordinates library and catalog operations.
type Service struct {
	store    library.Provider
	db       catalog.SpecCatalog
	composer *compose.Composer
	gen      *mermaid.Generator
	broker   *events.Broker
	logger   *slog.Logger
}

// NewService creates a viewer service. broker may be nil when no playback
// events are wanted (one-shot renders).
func NewService(store library.Provider, db catalog.SpecCatalog, broker *events.Broker, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		db:       db,
		composer: compose.New(logger),
		gen:      &mermaid.Generator{},
		broker:   broker,
		logger:   logger,
	}
}

// LoadSpec resolves a diagram id through the catalog and parses its file.
func (s *Service) LoadSpec(ctx context.Context, specID string) (*diagram.Spec, error) {
	data, err := s.ReadSource(ctx, specID)
	if err != nil {
		return nil, err
	}
	res, err := specparse.Parse(data)
	if err != nil {
		return nil, err
	}
	return res.Spec, nil
}

// ReadSource returns the raw spec file bytes for a diagram id.
func (s *Service) ReadSource(_ context.Context, specID string) ([]byte, error) {
	path, err := s.db.ResolvePath(specID)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("viewer: spec %q: %w", specID, apperr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// SaveSpec validates and writes a spec file, then indexes it. ifMatch carries
// optimistic concurrency: when non-empty it must equal the checksum of the
// current on-disk content or the write fails with apperr.ErrConflict. The new
// checksum is returned.
func (s *Service) SaveSpec(_ context.Context, path string, content []byte, ifMatch string) (string, error) {
	if !strings.HasSuffix(path, ".json") {
		return "", fmt.Errorf("viewer: spec path must end in .json: %s", path)
	}
	res, err := specparse.Parse(content)
	if err != nil {
		return "", err
	}

	kind := "updated"
	existing, err := s.store.Read(path)
	switch {
	case err == nil:
		if ifMatch != "" && ifMatch != library.Checksum(existing) {
			return "", fmt.Errorf("viewer: spec %q: %w", path, apperr.ErrConflict)
		}
	case errors.Is(err, os.ErrNotExist):
		kind = "created"
	default:
		return "", err
	}

	if err := s.store.Write(path, content); err != nil {
		return "", err
	}

	cs := library.Checksum(content)
	row := catalog.SpecRow{
		Path:       path,
		SpecID:     res.Spec.ID,
		Title:      res.Spec.Title,
		Layout:     string(res.Spec.Layout.Type),
		Checksum:   cs,
		NodeCount:  len(res.Spec.Nodes),
		EdgeCount:  len(res.Spec.Edges),
		SceneCount: len(res.Spec.Scenes),
		UpdatedAt:  time.Now(),
	}
	if err := s.db.UpsertSpec(row, res.SearchText); err != nil {
		return "", err
	}
	if s.broker != nil {
		s.broker.PublishSpecEvent(kind, path)
	}
	return cs, nil
}

// ListDiagrams returns the catalogued manifest, ordered by title.
func (s *Service) ListDiagrams(_ context.Context) ([]catalog.SpecRow, error) {
	return s.db.ListSpecs()
}

// Search delegates full-text search to the catalog.
func (s *Service) Search(_ context.Context, query string, limit int) ([]catalog.SearchResult, error) {
	return s.db.Search(query, limit)
}

// RenderBase renders a diagram with no overlays applied.
func (s *Service) RenderBase(ctx context.Context, specID string) (*RenderResult, error) {
	return s.RenderOverlays(ctx, specID, nil)
}

// RenderOverlays composes the named overlays onto the spec and generates
// diagram text.
func (s *Service) RenderOverlays(ctx context.Context, specID string, overlayIDs []string) (*RenderResult, error) {
	spec, err := s.LoadSpec(ctx, specID)
	if err != nil {
		return nil, err
	}
	return s.renderSpec(spec, overlayIDs)
}

// RenderScene renders the named scene of a diagram.
func (s *Service) RenderScene(ctx context.Context, specID, sceneID string) (*RenderResult, error) {
	spec, err := s.LoadSpec(ctx, specID)
	if err != nil {
		return nil, err
	}
	scene := spec.Scene(sceneID)
	if scene == nil {
		return nil, fmt.Errorf("viewer: scene %q in spec %q: %w", sceneID, specID, apperr.ErrNotFound)
	}
	return s.renderSpec(spec, scene.OverlayIDs)
}

func (s *Service) renderSpec(spec *diagram.Spec, overlayIDs []string) (*RenderResult, error) {
	composed, err := s.composer.Compose(spec, overlayIDs)
	if err != nil {
		return nil, err
	}
	text, err := s.gen.Generate(composed)
	if err != nil {
		return nil, err
	}
	s.recordView(spec.ID)
	return &RenderResult{
		SpecID:   spec.ID,
		Title:    spec.Title,
		Text:     text,
		Warnings: composed.Warnings,
	}, nil
}

// NewSequencer builds a walkthrough for a diagram, restored to the last
// recorded step.
func (s *Service) NewSequencer(ctx context.Context, specID string) (*sequencer.Sequencer, error) {
	spec, err := s.LoadSpec(ctx, specID)
	if err != nil {
		return nil, err
	}
	seq, err := sequencer.New(spec, s.composer, s.gen, s.broker, s.logger)
	if err != nil {
		return nil, err
	}
	if p, perr := s.db.GetProgress(specID); perr == nil && p.LastStep > 0 {
		if _, gerr := seq.GoTo(p.LastStep); gerr != nil && s.logger != nil {
			s.logger.Warn("viewer: restore step failed", slog.String("spec", specID), slog.String("error", gerr.Error()))
		}
	}
	s.recordView(specID)
	return seq, nil
}

// SaveStep persists the sequencer position for a diagram.
func (s *Service) SaveStep(_ context.Context, specID string, step int) error {
	return s.db.SetLastStep(specID, step)
}

// Progress returns the recorded study state for a diagram.
func (s *Service) Progress(_ context.Context, specID string) (catalog.Progress, error) {
	return s.db.GetProgress(specID)
}

// Theme returns the stored theme preference, defaulting to light.
func (s *Service) Theme(_ context.Context) (string, error) {
	v, err := s.db.GetSetting(themeKey)
	if err != nil {
		return "", err
	}
	if v == "" {
		return ThemeLight, nil
	}
	return v, nil
}

// SetTheme stores the theme preference.
func (s *Service) SetTheme(_ context.Context, theme string) error {
	if err := validation.Validate(theme, validation.Required, validation.In(ThemeLight, ThemeDark)); err != nil {
		return fmt.Errorf("viewer: theme: %w", err)
	}
	return s.db.SetSetting(themeKey, theme)
}

// recordView bumps the view counter; failures are logged, never fatal to a
// render.
func (s *Service) recordView(specID string) {
	if err := s.db.RecordView(specID); err != nil && s.logger != nil {
		s.logger.Warn("viewer: record view failed", slog.String("spec", specID), slog.String("error", err.Error()))
	}
}
