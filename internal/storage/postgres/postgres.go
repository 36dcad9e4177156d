// Package postgres stores trade tables and the run journal in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pairs-backtest-lab/internal/storage"
)

const applicationName = "pairs-backtest-lab"

// Pool is the pgx connection pool shared by the trade and run stores.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to dsn and verifies the connection.
// application_name defaults to pairs-backtest-lab unless the DSN sets it.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres at %s: %w", cfg.ConnConfig.Host, err)
	}

	return &Pool{Pool: pool}, nil
}

// unique_violation
const codeUniqueViolation = "23505"

// mapError converts pgx errors into storage sentinels and wraps everything else with op.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return storage.ErrDuplicateKey
	}
	return fmt.Errorf("%s: %w", op, err)
}
