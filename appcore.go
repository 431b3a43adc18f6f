package appcore

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmgilman/go/fs/billy"
	"github.com/jmgilman/go/fs/core"

	"github.com/scottlz0310/photogeoview-core/cache"
	"github.com/scottlz0310/photogeoview-core/config"
	"github.com/scottlz0310/photogeoview-core/state"
)

// System owns the cache registry, the state store, and the maintenance
// workers that service them. Construct one with New and release it with
// Shutdown.
type System struct {
	cfg    config.Config
	caches *cache.Registry
	store  *state.Store
	logger *slog.Logger
	fsys   core.FS

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// Option configures a System at construction.
type Option func(*System)

// WithLogger sets the logger for the system and both subsystems. Without
// it nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(s *System) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFS sets the filesystem used for state persistence. Defaults to the
// local filesystem.
func WithFS(fsys core.FS) Option {
	return func(s *System) {
		if fsys != nil {
			s.fsys = fsys
		}
	}
}

// New builds the system from cfg, loads any persisted state, and starts
// the maintenance workers. The returned System is ready for use; callers
// must eventually call Shutdown.
func New(cfg config.Config, opts ...Option) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &System{
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
		fsys:   billy.NewLocal(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.caches = cache.NewRegistry(cfg.ToRegistryConfig(), s.logger)
	s.store = state.NewStore(
		state.WithLogger(s.logger),
		state.WithFS(s.fsys),
		state.WithThemes(cfg.Themes...),
		state.WithMaxHistory(cfg.MaxHistorySize),
		state.WithHistoryRetention(cfg.HistoryRetention()),
	)

	if err := s.store.Load(cfg.StatePath); err != nil {
		return nil, err
	}

	// A thumbnail size change invalidates every rendered thumbnail.
	s.store.AddListener(state.KeyThumbnailSize, func(ev state.Event) {
		s.caches.Clear(cache.NamespaceThumbnail)
		s.logger.Info("thumbnail cache cleared on size change",
			"old", ev.OldValue, "new", ev.NewValue)
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if interval := cfg.AutoSaveInterval(); interval > 0 {
		s.wg.Add(1)
		go s.autoSaveLoop(ctx, interval)
	}
	if interval := cfg.CleanupInterval(); interval > 0 {
		s.wg.Add(1)
		go s.maintenanceLoop(ctx, interval)
	}

	s.logger.Info("application core started",
		"state_path", cfg.StatePath,
		"auto_save", cfg.AutoSaveInterval(),
		"cleanup", cfg.CleanupInterval())
	return s, nil
}

// Caches returns the cache registry.
func (s *System) Caches() *cache.Registry {
	return s.caches
}

// Store returns the state store.
func (s *System) Store() *state.Store {
	return s.store
}

// Shutdown stops the maintenance workers and writes a final state
// snapshot. It is idempotent; later calls return the first result. The
// context bounds how long to wait for the workers to finish.
func (s *System) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.cancel()

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			s.closeErr = ctx.Err()
			return
		}

		if err := s.store.Save(s.cfg.StatePath); err != nil {
			s.logger.Error("final state save failed", "error", err)
			s.closeErr = err
			return
		}
		s.logger.Info("application core stopped")
	})
	return s.closeErr
}
