// Package domain defines the record value type stored by rostercore and the
// validation sentinels shared by the store and persistence layers.
package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Validation sentinels surfaced by batch operations. Call sites wrap them with
// record context; callers test with errors.Is.
var (
	// ErrNilRecord flags a nil record in a batch.
	ErrNilRecord = errors.New("domain: nil record")
	// ErrMissingID flags a record whose identifier is the zero UUID.
	ErrMissingID = errors.New("domain: record id missing")
	// ErrEmptyName flags a record with an empty display name.
	ErrEmptyName = errors.New("domain: record name empty")
	// ErrDuplicateID flags an identifier already present in the target store
	// or repeated within a batch.
	ErrDuplicateID = errors.New("domain: duplicate record id")
)

// Record is the value stored by the roster: an immutable identity plus
// mutable display fields. Records move through the store by pointer and are
// never cloned. The display name is assumed unique across a store; renaming a
// record while it is stored desynchronizes the name index, so callers must
// remove and re-add instead.
type Record struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	CreatedAt Timestamp `json:"created_at"`
}

// NewRecord builds a record with a fresh identifier and a creation time
// stamped at construction.
func NewRecord(name string, age int) *Record {
	return &Record{ID: uuid.New(), Name: name, Age: age, CreatedAt: Now()}
}

// Validate reports whether the record can enter a store: non-nil, a non-zero
// identifier, and a non-empty display name. Age carries no business meaning
// here and is not checked.
func (r *Record) Validate() error {
	if r == nil {
		return ErrNilRecord
	}
	if r.ID == uuid.Nil {
		return ErrMissingID
	}
	if r.Name == "" {
		return fmt.Errorf("record %s: %w", r.ID, ErrEmptyName)
	}
	return nil
}
