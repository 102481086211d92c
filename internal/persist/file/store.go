// Package file persists roster snapshots as a JSON array file, written
// atomically through a sibling temp file and rename.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"rostercore/internal/persist"
	"rostercore/internal/store"
)

// Store is the file snapshot backend bound to one store and one target path.
type Store struct {
	records *store.Store
	path    string
}

// New binds a file backend to st writing at path. The parent directory is
// created on the first save, not here.
func New(st *store.Store, path string) (*Store, error) {
	if st == nil {
		return nil, errors.New("file: nil store")
	}
	if path == "" {
		return nil, errors.New("file: empty snapshot path")
	}
	return &Store{records: st, path: path}, nil
}

// Driver reports the backend driver name.
func (s *Store) Driver() persist.Driver { return persist.DriverFile }

// Path returns the bound target path.
func (s *Store) Path() string { return s.path }

// Save writes a point-in-time snapshot over the target file. The document is
// staged in a temp file in the target directory, synced, then renamed into
// place, so a reader of the path sees either the previous or the new complete
// document, never a truncated one.
func (s *Store) Save(ctx context.Context) error {
	data, err := persist.EncodeSnapshot(s.records.SnapshotAll())
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data)
}

// Load rebuilds the store from the snapshot file. A missing file surfaces a
// wrapped fs.ErrNotExist. The document is decoded and validated in full
// before the store is touched, so a bad file leaves the previous contents
// intact.
func (s *Store) Load(ctx context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	records, err := persist.DecodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", s.path, err)
	}
	if err := s.records.Replace(records...); err != nil {
		return fmt.Errorf("load snapshot %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op; the backend holds no resources between operations.
func (s *Store) Close() error { return nil }

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".roster-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	syncDir(dir)
	return nil
}

// syncDir flushes the directory entry after a rename. Failures are ignored;
// not every filesystem supports syncing a directory handle.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
