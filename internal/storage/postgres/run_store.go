package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runSelect = `
	SELECT
		run_id, name, market, filter, config, report,
		trades, skipped, rejected, created_at
	FROM backtest_runs
`

// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.Run) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO backtest_runs (
			run_id, name, market, filter, config, report,
			trades, skipped, rejected, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RunID, r.Name, r.Market, r.Filter, string(r.Config), string(r.Report),
		r.Trades, r.Skipped, r.Rejected, r.CreatedAt.UTC(),
	)
	return mapError("insert run", err)
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.Run, error) {
	row := s.pool.QueryRow(ctx, runSelect+` WHERE run_id = $1`, runID)
	r, err := scanRun(row)
	if err != nil {
		return nil, mapError("get run by id", err)
	}
	return r, nil
}

// List returns runs newest first.
func (s *RunStore) List(ctx context.Context, market string, limit int) ([]*domain.Run, error) {
	query := runSelect + `
		WHERE ($1 = '' OR market = $1)
		ORDER BY created_at DESC, run_id DESC
	`
	args := []any{market}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
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

// scanRun scans a single row into a Run.
// Unwrapped so callers can detect pgx.ErrNoRows.
func scanRun(row pgx.Row) (*domain.Run, error) {
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
