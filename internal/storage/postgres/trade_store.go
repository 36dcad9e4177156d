package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

var tradeColumns = []string{
	"market", "trade_id", "seq", "symbol", "paired_symbol",
	"entry_date", "entry_price", "exit_date", "exit_price",
	"position_type", "trade_window",
}

// InsertBulk appends trades atomically using COPY. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	for _, t := range trades {
		if t == nil || t.Market == "" || t.TradeID == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// seq continues after the rows already loaded for each market
	next := make(map[string]int64)
	rows := make([][]any, 0, len(trades))
	for _, t := range trades {
		seq, ok := next[t.Market]
		if !ok {
			err := tx.QueryRow(ctx,
				`SELECT COALESCE(MAX(seq) + 1, 0) FROM trades WHERE market = $1`, t.Market,
			).Scan(&seq)
			if err != nil {
				return fmt.Errorf("next trade seq: %w", err)
			}
		}
		next[t.Market] = seq + 1

		rows = append(rows, []any{
			t.Market, t.TradeID, seq, t.Symbol, t.PairedSymbol,
			t.EntryDate.UTC(), t.EntryPrice, t.ExitDate.UTC(), t.ExitPrice,
			string(t.PositionType), t.Window,
		})
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"trades"}, tradeColumns, pgx.CopyFromRows(rows)); err != nil {
		return mapError("copy trades", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByMarket retrieves all trades of a market in load order.
func (s *TradeStore) GetByMarket(ctx context.Context, market string) ([]*domain.Trade, error) {
	query := `
		SELECT
			market, trade_id, symbol, paired_symbol,
			entry_date, entry_price, exit_date, exit_price,
			position_type, trade_window
		FROM trades
		WHERE market = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, market)
	if err != nil {
		return nil, fmt.Errorf("query trades by market: %w", err)
	}
	defer rows.Close()

	trades := []*domain.Trade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}

	return trades, nil
}

// Markets lists markets that have trades, sorted by name.
func (s *TradeStore) Markets(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT market FROM trades ORDER BY market`)
	if err != nil {
		return nil, fmt.Errorf("query trade markets: %w", err)
	}

	markets, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect trade markets: %w", err)
	}
	return markets, nil
}

// scanTrade scans a single row into a Trade.
func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var t domain.Trade
	var positionType string
	var entryDate, exitDate time.Time

	err := row.Scan(
		&t.Market, &t.TradeID, &t.Symbol, &t.PairedSymbol,
		&entryDate, &t.EntryPrice, &exitDate, &t.ExitPrice,
		&positionType, &t.Window,
	)
	if err != nil {
		return nil, fmt.Errorf("scan trade row: %w", err)
	}

	t.EntryDate = entryDate.UTC()
	t.ExitDate = exitDate.UTC()
	t.PositionType = domain.PositionType(positionType)
	return &t, nil
}
