package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/renameio/v2"
)

const snapshotFileName = "ledger.json"

// snapshot is the on-disk shape of the marker set.
type snapshot struct {
	Markers []string `json:"markers"`
}

// FileStore keeps the marker set in memory and mirrors every commit into a
// full JSON snapshot on disk. The snapshot is written to a temp file and
// atomically renamed into place, so a successful Commit is never lost to a
// half-written file.
//
// A single mutex serializes commits against each other and against reads;
// Contains therefore always observes the latest completed Commit.
type FileStore struct {
	path string

	mu      sync.RWMutex
	markers map[string]struct{}
}

// NewFileStore loads the snapshot under dir, creating an empty ledger on
// first startup.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &FileStore{
		path:    filepath.Join(dir, snapshotFileName),
		markers: make(map[string]struct{}),
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse ledger snapshot: %w", err)
	}
	for _, m := range snap.Markers {
		s.markers[m] = struct{}{}
	}
	return s, nil
}

func (s *FileStore) Contains(_ context.Context, marker string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.markers[marker]
	return ok, nil
}

// Commit adds the marker and persists the updated set before returning.
// Committing a marker that is already present is a no-op.
func (s *FileStore) Commit(_ context.Context, marker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.markers[marker]; ok {
		return nil
	}
	s.markers[marker] = struct{}{}

	if err := s.persistLocked(); err != nil {
		// Roll back the in-memory add so a failed Commit is all-or-nothing.
		delete(s.markers, marker)
		return fmt.Errorf("persist ledger snapshot: %w", err)
	}
	return nil
}

func (s *FileStore) Size(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.markers), nil
}

// persistLocked writes the full snapshot. Callers must hold the write lock.
func (s *FileStore) persistLocked() error {
	snap := snapshot{Markers: make([]string, 0, len(s.markers))}
	for m := range s.markers {
		snap.Markers = append(snap.Markers, m)
	}
	sort.Strings(snap.Markers)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return renameio.WriteFile(s.path, data, 0o600)
}
