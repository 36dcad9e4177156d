package sqlite

import (
	"context"
	"fmt"
	"time"

	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore on the journal.
type SnapshotStore struct {
	db *DB
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertBulk stores the day sequence of a run in one transaction.
func (s *SnapshotStore) InsertBulk(ctx context.Context, runID string, snapshots []domain.DailySnapshot) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_snapshots
		(run_id, date, available_capital, invested_capital, total_capital,
		 daily_pnl, daily_costs, active_positions,
		 cumulative_pnl, cumulative_costs, net_performance, performance_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range snapshots {
		_, err := stmt.ExecContext(ctx,
			runID, d.DateKey(), d.AvailableCapital, d.InvestedCapital, d.TotalCapital,
			d.DailyPnL, d.DailyCosts, d.ActivePositions,
			d.CumulativePnL, d.CumulativeCosts, d.NetPerformance, d.PerformancePct,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRunID retrieves a run's day sequence ordered by date ASC.
func (s *SnapshotStore) GetByRunID(ctx context.Context, runID string) ([]domain.DailySnapshot, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT date, available_capital, invested_capital, total_capital,
		       daily_pnl, daily_costs, active_positions,
		       cumulative_pnl, cumulative_costs, net_performance, performance_pct
		FROM daily_snapshots
		WHERE run_id = ?
		ORDER BY date ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []domain.DailySnapshot{}
	for rows.Next() {
		var d domain.DailySnapshot
		var date string
		err := rows.Scan(
			&date, &d.AvailableCapital, &d.InvestedCapital, &d.TotalCapital,
			&d.DailyPnL, &d.DailyCosts, &d.ActivePositions,
			&d.CumulativePnL, &d.CumulativeCosts, &d.NetPerformance, &d.PerformancePct,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		if d.Date, err = time.Parse(domain.DateLayout, date); err != nil {
			return nil, fmt.Errorf("parse snapshot date %q: %w", date, err)
		}
		snapshots = append(snapshots, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snapshots, nil
}
