// Package persist defines the snapshot backend contract shared by the file,
// sqlite, and postgres targets, plus the JSON snapshot codec whose
// array-of-objects layout is the on-disk compatibility contract.
package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"rostercore/pkg/domain"
)

// Driver identifies a concrete snapshot backend implementation.
type Driver string

const (
	DriverFile     Driver = "file"     // JSON array file (default)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite database
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// Backend persists point-in-time snapshots of one roster store and rebuilds
// that store from the last persisted snapshot. Save overwrites the full
// target; Load stages and validates the decoded records before the store is
// touched. Neither holds the store's writer lock during I/O.
type Backend interface {
	Save(ctx context.Context) error
	Load(ctx context.Context) error
	Driver() Driver
	Close() error
}

// EncodeSnapshot marshals records as the pretty-printed JSON array written to
// snapshot targets. A nil slice encodes as an empty array so an empty store
// still produces a valid document.
func EncodeSnapshot(records []*domain.Record) ([]byte, error) {
	if records == nil {
		records = []*domain.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot unmarshals a snapshot document. Decoding is pure; staging
// and validation happen when the result enters a store.
func DecodeSnapshot(data []byte) ([]*domain.Record, error) {
	var records []*domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return records, nil
}
