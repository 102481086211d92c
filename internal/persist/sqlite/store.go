// Package sqlite persists roster snapshots in an embedded SQLite database
// through the pure-Go modernc.org driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"rostercore/internal/persist"
	"rostercore/internal/store"
	"rostercore/pkg/domain"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

const createTableStmt = `CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	payload BLOB NOT NULL
)`

// Store is the sqlite snapshot backend: each save rewrites the records table
// from a point-in-time snapshot inside one transaction.
type Store struct {
	records *store.Store
	db      *sql.DB
	path    string
}

// New opens (creating when absent) the database at path and binds it to st.
func New(st *store.Store, path string) (*Store, error) {
	if st == nil {
		return nil, errors.New("sqlite: nil store")
	}
	if path == "" {
		return nil, errors.New("sqlite: empty database path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec(createTableStmt); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create records table: %w", err)
	}
	return &Store{records: st, db: db, path: path}, nil
}

// Driver reports the backend driver name.
func (s *Store) Driver() persist.Driver { return persist.DriverSQLite }

// Save rewrites the records table from a point-in-time snapshot. The delete
// and all inserts share one transaction, so a reader of the database sees the
// previous or the new snapshot, never a mix.
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
		if _, err := tx.ExecContext(ctx, `INSERT INTO records(id,payload) VALUES(?,?)`, rec.ID.String(), payload); err != nil {
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

// Load rebuilds the store from the records table. The rows are decoded and
// staged in full before the store is touched. An empty table loads as an
// empty snapshot; opening the database already created it, so there is no
// missing-target case here.
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
		return fmt.Errorf("load sqlite snapshot: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
