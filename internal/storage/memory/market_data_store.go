package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/storage"
)

// MarketDataStore is an in-memory implementation of storage.MarketDataStore.
type MarketDataStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MarketBar // keyed by (market, symbol, date)
}

// NewMarketDataStore creates a new in-memory market data store.
func NewMarketDataStore() *MarketDataStore {
	return &MarketDataStore{
		data: make(map[string]*domain.MarketBar),
	}
}

// barKey generates a unique key for a bar.
func barKey(b *domain.MarketBar) string {
	return fmt.Sprintf("%s|%s|%s", b.Market, b.Symbol, domain.Day(b.Date).Format(domain.DateLayout))
}

// InsertBulk adds bars. Fails entire batch on duplicate.
func (s *MarketDataStore) InsertBulk(_ context.Context, bars []*domain.MarketBar) error {
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(bars))

	for _, b := range bars {
		if b == nil || b.Market == "" || b.Symbol == "" || b.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		key := barKey(b)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, b := range bars {
		barCopy := *b
		barCopy.Date = domain.Day(b.Date)
		s.data[barKey(b)] = &barCopy
	}

	return nil
}

// GetByMarket retrieves all bars of a market, ordered by date ASC, symbol ASC.
func (s *MarketDataStore) GetByMarket(_ context.Context, market string) ([]*domain.MarketBar, error) {
	return s.collect(func(b *domain.MarketBar) bool { return b.Market == market }), nil
}

// GetBySymbol retrieves the bars of one symbol, ordered by date ASC.
func (s *MarketDataStore) GetBySymbol(_ context.Context, market, symbol string) ([]*domain.MarketBar, error) {
	return s.collect(func(b *domain.MarketBar) bool {
		return b.Market == market && b.Symbol == symbol
	}), nil
}

// Markets lists markets that have bars, sorted by name.
func (s *MarketDataStore) Markets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, b := range s.data {
		seen[b.Market] = struct{}{}
	}
	markets := make([]string, 0, len(seen))
	for m := range seen {
		markets = append(markets, m)
	}
	sort.Strings(markets)
	return markets, nil
}

func (s *MarketDataStore) collect(match func(*domain.MarketBar) bool) []*domain.MarketBar {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.MarketBar{}
	for _, b := range s.data {
		if match(b) {
			barCopy := *b
			result = append(result, &barCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].Symbol < result[j].Symbol
	})
	return result
}

var _ storage.MarketDataStore = (*MarketDataStore)(nil)
