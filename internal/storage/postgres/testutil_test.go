package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"pairs-backtest-lab/internal/storage/migrations"
)

// setupTestDB starts a PostgreSQL container and applies the embedded schema.
// Skipped with -short.
func setupTestDB(t *testing.T) *Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("backtest_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "connect to test database")
	t.Cleanup(pool.Close)

	applied, err := migrations.ApplyPostgres(ctx, pool)
	require.NoError(t, err, "apply postgres migrations")
	require.NotEmpty(t, applied)

	again, err := migrations.ApplyPostgres(ctx, pool)
	require.NoError(t, err)
	require.Empty(t, again, "migrations are recorded in schema_migrations")
	return pool
}

func ptr[T any](v T) *T {
	return &v
}
