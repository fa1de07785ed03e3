// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/events"
)

// Run starts an auto-play session for one diagram: the library watcher keeps
// the catalog current, the sequencer advances on a timer, and each step's
// diagram text is printed as it is reached. The session ends at the last
// step, on SIGINT/SIGTERM, or when ctx is cancelled.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	if app.specID == "" {
		return fmt.Errorf("spec id is required")
	}

	sess, err := OpenSession(app.config)
	if err != nil {
		return err
	}
	defer sess.Close()

	logger := sess.Logger

	seq, err := sess.Viewer.NewSequencer(ctx, app.specID)
	if err != nil {
		return fmt.Errorf("open walkthrough: %w", err)
	}
	defer seq.Close()

	sub := sess.Broker.Subscribe()
	defer sess.Broker.Unsubscribe(sub)

	// Print the starting position before the timer takes over.
	current, err := seq.Current()
	if err != nil {
		return fmt.Errorf("render first step: %w", err)
	}
	printStep(events.StepChange{
		SpecID: app.specID,
		Index:  current.Index,
		Total:  current.Total,
		Title:  current.Step.Title,
		Text:   current.Text,
	})
	if current.Index >= current.Total-1 {
		logger.Info("walkthrough finished", slog.String("spec", app.specID))
		return nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	playCtx, stopPlay := context.WithCancel(gCtx)
	defer stopPlay()

	// Keep the catalog in sync while the session runs.
	g.Go(func() error {
		catalog.Watch(gCtx, sess.DB, sess.Store, app.config.Library.Path, logger, func(kind, path string) {
			sess.Broker.PublishSpecEvent(kind, path)
		})
		return nil
	})

	// Consume broker events: print steps, persist position, finish at the
	// last step.
	g.Go(func() error {
		defer stopPlay()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case ev, ok := <-sub:
				if !ok {
					return nil
				}
				switch ev.Type {
				case events.TypeStepChanged:
					sc, castOK := ev.Data.(events.StepChange)
					if !castOK {
						continue
					}
					printStep(sc)
					if err := sess.Viewer.SaveStep(gCtx, sc.SpecID, sc.Index); err != nil {
						logger.Warn("save step failed", slog.String("error", err.Error()))
					}
					if sc.Index >= sc.Total-1 {
						logger.Info("walkthrough finished", slog.String("spec", sc.SpecID))
						return errDone
					}
				case events.TypeLibraryUpdated:
					logger.Info("library changed during playback")
				}
			}
		}
	})

	seq.Play(playCtx, app.config.Playback.Interval())

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			return errDone
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != errDone {
		logger.Error("Playback error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Session stopped")
	return nil
}

// errDone signals a clean end of playback through the errgroup.
var errDone = fmt.Errorf("done")

func printStep(sc events.StepChange) {
	fmt.Printf("── step %d/%d: %s\n", sc.Index+1, sc.Total, sc.Title)
	fmt.Println(sc.Text)
	if !strings.HasSuffix(sc.Text, "\n") {
		fmt.Println()
	}
}
