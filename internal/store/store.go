// Package store implements the dual-indexed in-memory roster store: one
// record set addressable by id and by display name, kept mutually consistent
// under a single writer lock, with lock-free reads.
package store

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"rostercore/pkg/domain"

	"github.com/google/uuid"
)

// Store indexes the same set of records by id and by display name. Every
// structural mutation serializes on one writer lock and updates both indexes
// inside its critical section, so a mutation is observed either fully or not
// at all. Lookups and iteration never lock; concurrent readers see a weakly
// consistent view.
type Store struct {
	mu     sync.Mutex // serializes Add, RemoveByID, RemoveByName, Clear, Replace and the snapshot copy
	byID   sync.Map   // uuid.UUID -> *domain.Record
	byName sync.Map   // string -> *domain.Record
	count  atomic.Int64
}

// New returns an empty store. A store is cleared and reused across load
// operations rather than recreated.
func New() *Store {
	return &Store{}
}

// Add inserts every record into both indexes, or none of them. The batch is
// validated in full first: a nil record, a zero id, an empty name, an id
// already stored, or an id repeated within the batch rejects the whole batch
// with no partial insert. Display-name uniqueness is a caller contract: the
// store enforces id uniqueness only, and a record whose name collides with a
// stored record shadows it in the name index.
func (s *Store) Add(records ...*domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.validateBatch(records, true); err != nil {
		return err
	}
	s.insertLocked(records)
	return nil
}

// Replace swaps the store contents for the batch in one critical section.
// The batch is validated in full before the previous contents are dropped, so
// a validation failure leaves the store untouched. It backs the load path's
// stage-then-swap contract.
func (s *Store) Replace(records ...*domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.validateBatch(records, false); err != nil {
		return err
	}
	s.resetLocked()
	s.insertLocked(records)
	return nil
}

// GetByID returns the record stored under id.
func (s *Store) GetByID(id uuid.UUID) (*domain.Record, bool) {
	v, ok := s.byID.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*domain.Record), true
}

// GetByName returns the record stored under the display name.
func (s *Store) GetByName(name string) (*domain.Record, bool) {
	v, ok := s.byName.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*domain.Record), true
}

// RemoveByID removes every present id from both indexes and reports whether
// at least one record was removed. Missing ids are skipped, not an error.
func (s *Store) RemoveByID(ids ...uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := false
	for _, id := range ids {
		v, ok := s.byID.Load(id)
		if !ok {
			continue
		}
		s.dropLocked(v.(*domain.Record))
		removed = true
	}
	return removed
}

// RemoveByName removes every present display name from both indexes and
// reports whether at least one record was removed. Missing names are skipped.
func (s *Store) RemoveByName(names ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := false
	for _, name := range names {
		v, ok := s.byName.Load(name)
		if !ok {
			continue
		}
		s.dropLocked(v.(*domain.Record))
		removed = true
	}
	return removed
}

// Clear empties both indexes. It exists for the load path; callers quiesce
// their own writers around it.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// SnapshotAll returns a point-in-time copy of all records sorted by id. The
// writer lock is held for the copy step only, never during serialization or
// I/O on the result.
func (s *Store) SnapshotAll() []*domain.Record {
	s.mu.Lock()
	records := make([]*domain.Record, 0, s.count.Load())
	s.byID.Range(func(_, v any) bool {
		records = append(records, v.(*domain.Record))
		return true
	})
	s.mu.Unlock()
	sort.Slice(records, func(i, j int) bool {
		return bytes.Compare(records[i].ID[:], records[j].ID[:]) < 0
	})
	return records
}

// Len returns the current record count.
func (s *Store) Len() int {
	return int(s.count.Load())
}

// validateBatch checks every record before any insert. With checkStored set
// it also rejects ids already present in the store; Replace skips that check
// because the previous contents are about to be dropped.
func (s *Store) validateBatch(records []*domain.Record, checkStored bool) error {
	seen := make(map[uuid.UUID]struct{}, len(records))
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return err
		}
		if checkStored {
			if _, ok := s.byID.Load(rec.ID); ok {
				return fmt.Errorf("add record %s: %w", rec.ID, domain.ErrDuplicateID)
			}
		}
		if _, dup := seen[rec.ID]; dup {
			return fmt.Errorf("record %s repeated in batch: %w", rec.ID, domain.ErrDuplicateID)
		}
		seen[rec.ID] = struct{}{}
	}
	return nil
}

func (s *Store) insertLocked(records []*domain.Record) {
	for _, rec := range records {
		s.byID.Store(rec.ID, rec)
		s.byName.Store(rec.Name, rec)
	}
	s.count.Add(int64(len(records)))
}

func (s *Store) dropLocked(rec *domain.Record) {
	s.byID.Delete(rec.ID)
	s.byName.Delete(rec.Name)
	s.count.Add(-1)
}

// resetLocked empties both indexes entry by entry. The maps are never
// reassigned: readers hold lock-free references to them, so a fresh sync.Map
// would strand concurrent lookups on the old ones.
func (s *Store) resetLocked() {
	s.byID.Range(func(k, _ any) bool {
		s.byID.Delete(k)
		return true
	})
	s.byName.Range(func(k, _ any) bool {
		s.byName.Delete(k)
		return true
	})
	s.count.Store(0)
}
