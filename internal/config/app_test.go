package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.Batch.Parallelism)
	assert.Equal(t, []string{"FTSE100", "NASDAQ100"}, cfg.Markets)
	assert.Equal(t, DefaultTrading(), cfg.Trading)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "backtest.yaml")
	content := `
server:
  addr: ":9999"
trading:
  initial_capital: 5000
  position_size_percent: 0.1
markets: [DAX40]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("BACKTEST_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5000.0, cfg.Trading.InitialCapital)
	assert.Equal(t, 0.1, cfg.Trading.PositionSizePercent)
	assert.Equal(t, 1.0, cfg.Trading.FixedCommission)
	assert.Equal(t, []string{"DAX40"}, cfg.Markets)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "backtest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: postgres\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres_dsn")

	require.NoError(t, os.WriteFile(path, []byte("trading:\n  initial_capital: -5\n"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDatasets(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "backtest.yaml")
	content := `
datasets:
  - market: FTSE100
    trades: data/ftse_trades.csv
    bars: data/ftse_bars.csv
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Datasets, 1)
	assert.Equal(t, Dataset{Market: "FTSE100", Trades: "data/ftse_trades.csv", Bars: "data/ftse_bars.csv"}, cfg.Datasets[0])

	require.NoError(t, os.WriteFile(path, []byte("datasets:\n  - trades: x.csv\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
