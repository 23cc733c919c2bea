package ledger

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for tests or local use.
// It is safe for concurrent access but does not persist across process restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	markers map[string]struct{}
}

// NewMemoryStore constructs an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{markers: make(map[string]struct{})}
}

func (s *MemoryStore) Contains(_ context.Context, marker string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.markers[marker]
	return ok, nil
}

func (s *MemoryStore) Commit(_ context.Context, marker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[marker] = struct{}{}
	return nil
}

func (s *MemoryStore) Size(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.markers), nil
}
