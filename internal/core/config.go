// Package core is the composition root: it reads configuration from the
// environment, opens the selected persistence backend, and assembles the
// store, autosave policy, lifecycle guard, and optional archive uploader
// into one Manager.
package core

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	s3archive "rostercore/internal/archive/s3"
	"rostercore/internal/autosave"
	"rostercore/internal/persist"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvPersistDriver    = "ROSTERCORE_PERSIST_DRIVER"
	EnvSnapshotPath     = "ROSTERCORE_SNAPSHOT_PATH"
	EnvPostgresDSN      = "ROSTERCORE_POSTGRES_DSN"
	EnvAutosave         = "ROSTERCORE_AUTOSAVE"
	EnvAutosaveInterval = "ROSTERCORE_AUTOSAVE_INTERVAL"
)

const (
	defaultFilePath   = "data/roster.json"
	defaultSQLitePath = "data/roster.db"
)

// Config carries everything NewManager needs to assemble a running system.
// ArchiveS3 turns on post-save snapshot uploads; the archive package reads
// its own ROSTERCORE_ARCHIVE_S3_* variables for bucket, region and endpoint.
type Config struct {
	Driver           persist.Driver
	Path             string
	DSN              string
	AutosaveEnabled  bool
	AutosaveInterval time.Duration
	ArchiveS3        bool
	Logger           *slog.Logger
}

// ConfigFromEnv assembles a Config from environment variables.
//
//	ROSTERCORE_PERSIST_DRIVER: file|sqlite|postgres (default file)
//	ROSTERCORE_SNAPSHOT_PATH: snapshot file or sqlite database path
//	  (default data/roster.json, data/roster.db when driver=sqlite)
//	ROSTERCORE_POSTGRES_DSN: postgres DSN when driver=postgres
//	ROSTERCORE_AUTOSAVE: true|false (default true)
//	ROSTERCORE_AUTOSAVE_INTERVAL: Go duration between ticks (default 1s)
//	ROSTERCORE_ARCHIVE_S3_BUCKET: enables snapshot archiving when set
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Driver:           persist.DriverFile,
		AutosaveEnabled:  true,
		AutosaveInterval: autosave.DefaultInterval,
		ArchiveS3:        os.Getenv(s3archive.EnvBucket) != "",
	}
	if v := os.Getenv(EnvPersistDriver); v != "" {
		cfg.Driver = persist.Driver(v)
	}
	cfg.Path = os.Getenv(EnvSnapshotPath)
	if cfg.Path == "" {
		if cfg.Driver == persist.DriverSQLite {
			cfg.Path = defaultSQLitePath
		} else {
			cfg.Path = defaultFilePath
		}
	}
	cfg.DSN = os.Getenv(EnvPostgresDSN)
	if v := os.Getenv(EnvAutosave); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvAutosave, err)
		}
		cfg.AutosaveEnabled = enabled
	}
	if v := os.Getenv(EnvAutosaveInterval); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvAutosaveInterval, err)
		}
		if interval <= 0 {
			return Config{}, fmt.Errorf("parse %s: interval must be positive, got %s", EnvAutosaveInterval, interval)
		}
		cfg.AutosaveInterval = interval
	}
	return cfg, nil
}
