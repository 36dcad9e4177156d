package clickhouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"pairs-backtest-lab/internal/storage/migrations"
)

// setupTestDB starts a ClickHouse container, creates the backtest database through
// OpenDatabase and applies the embedded schema. Skipped with -short.
func setupTestDB(t *testing.T) *Conn {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping clickhouse integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "clickhouse/clickhouse-server:24.1-alpine",
			ExposedPorts: []string{"9000/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForLog("Ready for connections").WithStartupTimeout(90*time.Second),
				wait.ForListeningPort("9000/tcp"),
			),
		},
		Started: true,
	})
	require.NoError(t, err, "start clickhouse container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate clickhouse container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	conn, err := OpenDatabase(ctx, fmt.Sprintf("clickhouse://default:@%s:%s/backtest_test", host, port.Port()))
	require.NoError(t, err, "open test database")
	t.Cleanup(func() { conn.Close() })

	_, err = migrations.ApplyClickhouse(ctx, conn)
	require.NoError(t, err, "apply clickhouse migrations")
	return conn
}
