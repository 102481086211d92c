package core

import (
	"fmt"

	"rostercore/internal/persist"
	"rostercore/internal/persist/file"
	"rostercore/internal/persist/postgres"
	"rostercore/internal/persist/sqlite"
	"rostercore/internal/store"
)

// OpenBackend opens the persistence backend named by cfg.Driver for st.
// Every backend rewrites the full snapshot on Save; the driver only decides
// where the snapshot lives.
func OpenBackend(st *store.Store, cfg Config) (persist.Backend, error) {
	switch cfg.Driver {
	case persist.DriverFile:
		return file.New(st, cfg.Path)
	case persist.DriverSQLite:
		return sqlite.New(st, cfg.Path)
	case persist.DriverPostgres:
		return postgres.New(st, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown persist driver %s", cfg.Driver)
	}
}
