package memory

import (
	"context"
	"sync"

	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]domain.DailySnapshot // keyed by run_id, date order
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string][]domain.DailySnapshot),
	}
}

// InsertBulk stores the day sequence of a run.
func (s *SnapshotStore) InsertBulk(_ context.Context, runID string, snapshots []domain.DailySnapshot) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(snapshots) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[runID] = append([]domain.DailySnapshot(nil), snapshots...)
	return nil
}

// GetByRunID retrieves a run's day sequence ordered by date ASC.
func (s *SnapshotStore) GetByRunID(_ context.Context, runID string) ([]domain.DailySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.DailySnapshot{}, s.data[runID]...), nil
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
