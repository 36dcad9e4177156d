package memory

import (
	"context"
	"sort"
	"sync"

	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Run // keyed by run_id
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.Run),
	}
}

// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(_ context.Context, r *domain.Run) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.RunID] = copyRun(r)
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(_ context.Context, runID string) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRun(r), nil
}

// List returns runs newest first. Run IDs are ULIDs, so ID order breaks creation-time ties.
func (s *RunStore) List(_ context.Context, market string, limit int) ([]*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.Run{}
	for _, r := range s.data {
		if market == "" || r.Market == market {
			result = append(result, copyRun(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].RunID > result[j].RunID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func copyRun(r *domain.Run) *domain.Run {
	c := *r
	c.Config = append([]byte(nil), r.Config...)
	c.Report = append([]byte(nil), r.Report...)
	return &c
}

var _ storage.RunStore = (*RunStore)(nil)
