package clickhouse

import (
	"context"
	"fmt"
	"time"

	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/storage"
)

// MarketDataStore implements storage.MarketDataStore using ClickHouse.
type MarketDataStore struct {
	conn *Conn
}

// NewMarketDataStore creates a new MarketDataStore.
func NewMarketDataStore(conn *Conn) *MarketDataStore {
	return &MarketDataStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MarketDataStore = (*MarketDataStore)(nil)

const barSelect = `
	SELECT market, symbol, date, open, high, low, close, volume
	FROM market_bars
`

// InsertBulk adds bars. Fails entire batch on duplicate (market, symbol, date).
// MergeTree does not enforce keys, so duplicates are checked before the batch is sent.
func (s *MarketDataStore) InsertBulk(ctx context.Context, bars []*domain.MarketBar) error {
	if len(bars) == 0 {
		return nil
	}

	type key struct {
		market, symbol string
		date           time.Time
	}
	seen := make(map[key]struct{}, len(bars))
	for _, b := range bars {
		if b == nil || b.Market == "" || b.Symbol == "" || b.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		k := key{b.Market, b.Symbol, domain.Day(b.Date)}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for k := range seen {
		exists, err := s.exists(ctx, k.market, k.symbol, k.date)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO market_bars (market, symbol, date, open, high, low, close, volume)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		err = batch.Append(
			b.Market, b.Symbol, domain.Day(b.Date),
			b.Open, b.High, b.Low, b.Close, b.Volume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByMarket retrieves all bars of a market, ordered by date ASC, symbol ASC.
func (s *MarketDataStore) GetByMarket(ctx context.Context, market string) ([]*domain.MarketBar, error) {
	rows, err := s.conn.Query(ctx, barSelect+`
		WHERE market = ?
		ORDER BY date ASC, symbol ASC
	`, market)
	if err != nil {
		return nil, fmt.Errorf("query bars by market: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetBySymbol retrieves the bars of one symbol, ordered by date ASC.
func (s *MarketDataStore) GetBySymbol(ctx context.Context, market, symbol string) ([]*domain.MarketBar, error) {
	rows, err := s.conn.Query(ctx, barSelect+`
		WHERE market = ? AND symbol = ?
		ORDER BY date ASC
	`, market, symbol)
	if err != nil {
		return nil, fmt.Errorf("query bars by symbol: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// Markets lists markets that have bars, sorted by name.
func (s *MarketDataStore) Markets(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, `SELECT DISTINCT market FROM market_bars ORDER BY market`)
	if err != nil {
		return nil, fmt.Errorf("query bar markets: %w", err)
	}
	defer rows.Close()

	markets := []string{}
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan market: %w", err)
		}
		markets = append(markets, m)
	}
	return markets, rows.Err()
}

func (s *MarketDataStore) exists(ctx context.Context, market, symbol string, date time.Time) (bool, error) {
	query := `
		SELECT count(*) FROM market_bars
		WHERE market = ? AND symbol = ? AND date = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, market, symbol, date).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanBars scans multiple rows.
func scanBars(rows chRows) ([]*domain.MarketBar, error) {
	bars := []*domain.MarketBar{}

	for rows.Next() {
		var b domain.MarketBar
		err := rows.Scan(
			&b.Market, &b.Symbol, &b.Date,
			&b.Open, &b.High, &b.Low, &b.Close, &b.Volume,
		)
		if err != nil {
			return nil, fmt.Errorf("scan market bar row: %w", err)
		}
		b.Date = domain.Day(b.Date)
		bars = append(bars, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market bar rows: %w", err)
	}

	return bars, nil
}
