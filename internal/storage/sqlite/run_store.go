package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/storage"
)

// RunStore implements storage.RunStore on the journal.
type RunStore struct {
	db *DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

var _ storage.RunStore = (*RunStore)(nil)

const runSelect = `
	SELECT run_id, name, market, filter, config, report, trades, skipped, rejected, created_at
	FROM backtest_runs
`

// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.Run) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO backtest_runs
		(run_id, name, market, filter, config, report, trades, skipped, rejected, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Name, r.Market, r.Filter, string(r.Config), string(r.Report),
		r.Trades, r.Skipped, r.Rejected, r.CreatedAt.UTC(),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.Run, error) {
	row := s.db.db.QueryRowContext(ctx, runSelect+` WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return r, nil
}

// List returns runs newest first.
func (s *RunStore) List(ctx context.Context, market string, limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}

	rows, err := s.db.db.QueryContext(ctx, runSelect+`
		WHERE (? = '' OR market = ?)
		ORDER BY created_at DESC, run_id DESC
		LIMIT ?`, market, market, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []*domain.Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.Run, error) {
	var r domain.Run
	var config, report string

	err := row.Scan(
		&r.RunID, &r.Name, &r.Market, &r.Filter, &config, &report,
		&r.Trades, &r.Skipped, &r.Rejected, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Config = []byte(config)
	r.Report = []byte(report)
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}
