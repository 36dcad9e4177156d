package memory

import (
	"context"
	"sort"
	"sync"

	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu    sync.RWMutex
	data  map[string][]*domain.Trade     // keyed by market, load order
	index map[string]map[string]struct{} // market -> trade_id set
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data:  make(map[string][]*domain.Trade),
		index: make(map[string]map[string]struct{}),
	}
}

// InsertBulk appends trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(_ context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[[2]string]struct{}, len(trades))

	// First pass: check for duplicates (existing + intra-batch)
	for _, t := range trades {
		if t == nil || t.Market == "" || t.TradeID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.index[t.Market][t.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		key := [2]string{t.Market, t.TradeID}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, t := range trades {
		if s.index[t.Market] == nil {
			s.index[t.Market] = make(map[string]struct{})
		}
		s.index[t.Market][t.TradeID] = struct{}{}
		s.data[t.Market] = append(s.data[t.Market], copyTrade(t))
	}

	return nil
}

// GetByMarket retrieves all trades of a market in load order.
func (s *TradeStore) GetByMarket(_ context.Context, market string) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.data[market]
	result := make([]*domain.Trade, len(stored))
	for i, t := range stored {
		result[i] = copyTrade(t)
	}
	return result, nil
}

// Markets lists markets that have trades, sorted by name.
func (s *TradeStore) Markets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	markets := make([]string, 0, len(s.data))
	for m := range s.data {
		markets = append(markets, m)
	}
	sort.Strings(markets)
	return markets, nil
}

func copyTrade(t *domain.Trade) *domain.Trade {
	c := *t
	if t.Window != nil {
		w := *t.Window
		c.Window = &w
	}
	return &c
}

var _ storage.TradeStore = (*TradeStore)(nil)
