package clickhouse

import (
	"context"
	"fmt"

	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertBulk stores the day sequence of a run. Fails if the run already has snapshots.
func (s *SnapshotStore) InsertBulk(ctx context.Context, runID string, snapshots []domain.DailySnapshot) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(snapshots) == 0 {
		return nil
	}

	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM daily_snapshots WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO daily_snapshots (
			run_id, date, available_capital, invested_capital, total_capital,
			daily_pnl, daily_costs, active_positions,
			cumulative_pnl, cumulative_costs, net_performance, performance_pct
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, d := range snapshots {
		err = batch.Append(
			runID, d.Date, d.AvailableCapital, d.InvestedCapital, d.TotalCapital,
			d.DailyPnL, d.DailyCosts, uint32(d.ActivePositions),
			d.CumulativePnL, d.CumulativeCosts, d.NetPerformance, d.PerformancePct,
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

// GetByRunID retrieves a run's day sequence ordered by date ASC.
func (s *SnapshotStore) GetByRunID(ctx context.Context, runID string) ([]domain.DailySnapshot, error) {
	query := `
		SELECT
			date, available_capital, invested_capital, total_capital,
			daily_pnl, daily_costs, active_positions,
			cumulative_pnl, cumulative_costs, net_performance, performance_pct
		FROM daily_snapshots
		WHERE run_id = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots by run id: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// scanSnapshots scans multiple rows.
func scanSnapshots(rows chRows) ([]domain.DailySnapshot, error) {
	snapshots := []domain.DailySnapshot{}

	for rows.Next() {
		var d domain.DailySnapshot
		var active uint32

		err := rows.Scan(
			&d.Date, &d.AvailableCapital, &d.InvestedCapital, &d.TotalCapital,
			&d.DailyPnL, &d.DailyCosts, &active,
			&d.CumulativePnL, &d.CumulativeCosts, &d.NetPerformance, &d.PerformancePct,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		d.Date = domain.Day(d.Date)
		d.ActivePositions = int(active)
		snapshots = append(snapshots, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snapshots, nil
}
