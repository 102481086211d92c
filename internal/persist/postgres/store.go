// Package postgres persists roster snapshots in a PostgreSQL server through
// the pgx database/sql adapter.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"rostercore/internal/persist"
	"rostercore/internal/store"
	"rostercore/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion.
var _ persist.Backend = (*Store)(nil)

const driverName = "pgx"

const createTableStmt = `CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	payload JSONB NOT NULL
)`

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// OverrideSQLOpen swaps the database opener so tests can inject a stub
// database. It returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}

// Store is the PostgreSQL snapshot backend: each save rewrites the records
// table from a point-in-time snapshot inside one transaction.
type Store struct {
	records *store.Store
	db      *sql.DB
}

// New connects to the server named by dsn, verifies the connection, and
// ensures the records table exists.
func New(st *store.Store, dsn string) (*Store, error) {
	if st == nil {
		return nil, errors.New("postgres: nil store")
	}
	if dsn == "" {
		return nil, errors.New("postgres: empty dsn")
	}
	openMu.Lock()
	db, err := sqlOpen(driverName, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTableStmt); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create records table: %w", err)
	}
	return &Store{records: st, db: db}, nil
}

// Driver reports the backend driver name.
func (s *Store) Driver() persist.Driver { return persist.DriverPostgres }

// Save rewrites the records table from a point-in-time snapshot in one
// transaction.
func (s *Store) Save(ctx context.Context) (retErr error) {
	snapshot := s.records.SnapshotAll()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		retErr = fmt.Errorf("clear records table: %w", err)
		return retErr
	}
	for _, rec := range snapshot {
		payload, err := json.Marshal(rec)
		if err != nil {
			retErr = fmt.Errorf("encode record %s: %w", rec.ID, err)
			return retErr
		}
		// The payload binds as text and is cast server-side; a []byte argument
		// would bind as bytea, which has no cast to the jsonb column.
		if _, err := tx.ExecContext(ctx, `INSERT INTO records(id,payload) VALUES($1,$2::jsonb)`, rec.ID.String(), string(payload)); err != nil {
			retErr = fmt.Errorf("insert record %s: %w", rec.ID, err)
			return retErr
		}
	}
	if err := tx.Commit(); err != nil {
		retErr = fmt.Errorf("commit save: %w", err)
		return retErr
	}
	return nil
}

// Load rebuilds the store from the records table, staging the decoded rows
// in full before the store is touched. An empty table loads as an empty
// snapshot.
func (s *Store) Load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM records ORDER BY id`)
	if err != nil {
		return fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()
	var records []*domain.Record
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("scan record: %w", err)
		}
		rec := new(domain.Record)
		if err := json.Unmarshal(payload, rec); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate records: %w", err)
	}
	if err := s.records.Replace(records...); err != nil {
		return fmt.Errorf("load postgres snapshot: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }
