package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	s3archive "rostercore/internal/archive/s3"
	"rostercore/internal/autosave"
	"rostercore/internal/lifecycle"
	"rostercore/internal/persist"
	"rostercore/internal/store"
)

// snapshotArchiver is the retention hook Manager.Save calls after a
// successful backend save. *s3archive.Archiver satisfies it.
type snapshotArchiver interface {
	Archive(ctx context.Context) (string, error)
}

// Manager owns the assembled system: the record store, the persistence
// backend selected by configuration, the optional S3 snapshot archiver, the
// autosave policy, and the lifecycle guard. Manager.Save is the single save
// path shared by autosave ticks, lifecycle saves, and explicit host calls.
type Manager struct {
	store    *store.Store
	backend  persist.Backend
	archiver snapshotArchiver
	policy   *autosave.Policy
	guard    *lifecycle.Guard
	log      *slog.Logger

	autosaveEnabled bool
}

// NewManager opens the configured backend and wires the manager around it.
// Snapshot archiving is enabled when cfg.ArchiveS3 is set.
func NewManager(ctx context.Context, cfg Config) (*Manager, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	st := store.New()
	backend, err := OpenBackend(st, cfg)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		store:           st,
		backend:         backend,
		log:             log,
		autosaveEnabled: cfg.AutosaveEnabled,
	}
	if cfg.ArchiveS3 {
		archiver, err := s3archive.OpenFromEnv(ctx, st)
		if err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("open snapshot archiver: %w", err)
		}
		m.archiver = archiver
	}
	m.policy = autosave.New(m, autosave.Options{Interval: cfg.AutosaveInterval, Logger: log})
	m.guard = lifecycle.New(st, m, log)
	return m, nil
}

// Save writes the current snapshot through the backend, then uploads an
// archive copy when archiving is configured. Archive failures are logged and
// suppressed; only the backend write decides the save's result.
func (m *Manager) Save(ctx context.Context) error {
	if err := m.backend.Save(ctx); err != nil {
		return err
	}
	if m.archiver != nil {
		key, err := m.archiver.Archive(ctx)
		if err != nil {
			m.log.Warn("snapshot archive upload failed", "error", err)
		} else {
			m.log.Debug("snapshot archived", "key", key)
		}
	}
	return nil
}

// Bootstrap loads the last persisted snapshot into the store. A missing
// snapshot is a fresh start, not an error.
func (m *Manager) Bootstrap(ctx context.Context) error {
	if err := m.backend.Load(ctx); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.log.Info("no snapshot found, starting empty", "driver", m.backend.Driver())
			return nil
		}
		return fmt.Errorf("bootstrap %s backend: %w", m.backend.Driver(), err)
	}
	m.log.Info("snapshot loaded", "driver", m.backend.Driver(), "records", m.store.Len())
	return nil
}

// Start registers the lifecycle guard and, when enabled, begins autosave.
func (m *Manager) Start() {
	m.guard.Register()
	if m.autosaveEnabled {
		m.policy.Start()
	}
}

// Stop halts autosave, runs the guard's final termination save, and closes
// the backend. Safe to call alongside signal-triggered shutdown: the guard
// deduplicates the final save.
func (m *Manager) Stop() error {
	m.policy.Stop()
	m.guard.Shutdown()
	return m.backend.Close()
}

// Store exposes the record store for callers to mutate.
func (m *Manager) Store() *store.Store {
	return m.store
}

// Guard exposes the lifecycle guard, usually for Protect.
func (m *Manager) Guard() *lifecycle.Guard {
	return m.guard
}

// Done is closed once termination handling has finished.
func (m *Manager) Done() <-chan struct{} {
	return m.guard.Done()
}
