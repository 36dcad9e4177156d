package storage

import (
	"context"

	"pairs-backtest-lab/internal/domain"
)

// TradeStore provides access to the trades table.
// Trades are keyed by (market, trade_id) and returned in load order.
type TradeStore interface {
	// InsertBulk appends trades atomically. Fails entire batch on any duplicate
	// (market, trade_id) or on a trade without market or ID.
	InsertBulk(ctx context.Context, trades []*domain.Trade) error

	// GetByMarket retrieves all trades of a market in load order.
	// Returns an empty slice if the market has no trades.
	GetByMarket(ctx context.Context, market string) ([]*domain.Trade, error)

	// Markets lists markets that have trades, sorted by name.
	Markets(ctx context.Context) ([]string, error)
}

// MarketDataStore provides access to daily market bars.
type MarketDataStore interface {
	// InsertBulk adds bars. Fails entire batch on duplicate (market, symbol, date).
	InsertBulk(ctx context.Context, bars []*domain.MarketBar) error

	// GetByMarket retrieves all bars of a market, ordered by date ASC, symbol ASC.
	GetByMarket(ctx context.Context, market string) ([]*domain.MarketBar, error)

	// GetBySymbol retrieves the bars of one symbol, ordered by date ASC.
	GetBySymbol(ctx context.Context, market, symbol string) ([]*domain.MarketBar, error)

	// Markets lists markets that have bars, sorted by name.
	Markets(ctx context.Context) ([]string, error)
}

// RunStore provides access to the backtest_runs journal.
type RunStore interface {
	// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.Run) error

	// GetByID retrieves a run. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.Run, error)

	// List returns runs newest first. An empty market matches all markets.
	// limit <= 0 means no limit.
	List(ctx context.Context, market string, limit int) ([]*domain.Run, error)
}

// SnapshotStore provides access to the daily_snapshots of persisted runs.
type SnapshotStore interface {
	// InsertBulk stores the day sequence of a run. Fails if the run already has snapshots.
	InsertBulk(ctx context.Context, runID string, snapshots []domain.DailySnapshot) error

	// GetByRunID retrieves a run's day sequence ordered by date ASC.
	// Returns an empty slice if the run has no snapshots.
	GetByRunID(ctx context.Context, runID string) ([]domain.DailySnapshot, error)
}
