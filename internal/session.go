package internal

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/events"
	"github.com/starford/ansuz/internal/library"
	"github.com/starford/ansuz/internal/viewer"
)

// Session bundles the resources every command works with: the spec library,
// the catalog database, the event broker, and the viewer service built on
// top of them. One Session is created per CLI invocation and closed on exit.
type Session struct {
	Config *Config
	Logger *slog.Logger
	Store  *library.FS
	DB     *catalog.DB
	Broker *events.Broker
	Viewer *viewer.Service
}

// OpenSession initialises logging, storage, and the catalog, and runs the
// initial library sync.
func OpenSession(cfg *Config) (*Session, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("library_path", cfg.Library.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure library directory exists.
	if err := os.MkdirAll(cfg.Library.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}

	store, err := library.NewFS(cfg.Library.Path)
	if err != nil {
		return nil, fmt.Errorf("init library: %w", err)
	}

	db, err := catalog.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init catalog: %w", err)
	}

	// Run initial sync.
	if err := catalog.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	broker := events.NewBroker(cfg.Playback.Interval())

	return &Session{
		Config: cfg,
		Logger: logger,
		Store:  store,
		DB:     db,
		Broker: broker,
		Viewer: viewer.NewService(store, db, broker, logger),
	}, nil
}

// Close releases the session's resources.
func (s *Session) Close() {
	s.Broker.Close()
	if err := s.DB.Close(); err != nil {
		s.Logger.Warn("catalog close failed", slog.String("error", err.Error()))
	}
}
