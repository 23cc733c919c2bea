package store

import (
	"context"
	"sync"
	"time"

	"verinode/internal/sentinel"
	"verinode/internal/verification/models"
)

// MemoryStore keeps staged claims in process memory behind a single mutex.
// One exclusion domain covers the whole table, so a finalize and a reaper
// sweep racing on the same claim id resolve to exactly one winner.
type MemoryStore struct {
	mu     sync.Mutex
	claims map[string]*models.ClaimRecord
}

// NewMemoryStore constructs an empty in-memory pending claims table.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{claims: make(map[string]*models.ClaimRecord)}
}

func (s *MemoryStore) Stage(_ context.Context, record *models.ClaimRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyRecord := *record
	s.claims[record.ClaimID] = &copyRecord
	return nil
}

func (s *MemoryStore) StageIfAbsent(_ context.Context, record *models.ClaimRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claims[record.ClaimID]; ok {
		return sentinel.ErrConflict
	}
	copyRecord := *record
	s.claims[record.ClaimID] = &copyRecord
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, claimID string) (*models.ClaimRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.claims[claimID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(s.claims, claimID)
	copyRecord := *record
	return &copyRecord, nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	for id, record := range s.claims {
		if !record.StagedAt.After(cutoff) {
			delete(s.claims, id)
			removed = append(removed, id)
		}
	}
	return removed, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.claims), nil
}
