package config

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Store is the process-wide, atomically swappable Config instance (§3,
// §9). It replaces the teacher's ReloadCoordinator's atomic.Value with a
// generic atomic.Pointer and narrows its multi-phase pipeline down to
// DistroBaker's single rule: validate fully before ever swapping, so a
// failed reload is invisible to every concurrent Resolve call.
type Store struct {
	current atomic.Pointer[Config]
	logger  *slog.Logger
}

// NewStore creates a Store, initially holding cfg (which may be nil until
// the first successful Load).
func NewStore(cfg *Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{logger: logger}
	if cfg != nil {
		s.current.Store(cfg)
	}
	return s
}

// Get returns the currently effective Config, or nil if none has ever
// loaded successfully.
func (s *Store) Get() *Config {
	return s.current.Load()
}

// Reload clones and validates configRepoURL via Load, and only on success
// swaps it in as the new current Config. On failure, the previously
// loaded Config (if any) remains in effect untouched — invariant 4 (§8).
func (s *Store) Reload(ctx context.Context, configRepoURL string, retries int) error {
	next, err := Load(ctx, configRepoURL, retries)
	if err != nil {
		s.logger.Error("config reload failed, keeping previous configuration", "error", err)
		return err
	}
	s.current.Store(next)
	s.logger.Info("config reload succeeded")
	return nil
}
