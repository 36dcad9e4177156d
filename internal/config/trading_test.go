package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestDefaultTrading(t *testing.T) {
	cfg := DefaultTrading()
	assert.Equal(t, 100000.0, cfg.InitialCapital)
	assert.Equal(t, 0.01, cfg.PositionSizePercent)
	assert.Equal(t, 1.0, cfg.FixedCommission)
	assert.Equal(t, 0.00018, cfg.VariableFee)
	assert.Equal(t, 0.001, cfg.BidAskSpread)
	assert.Equal(t, 0.0, cfg.RiskFreeRate)
	assert.NoError(t, cfg.Validate())
	assert.InDelta(t, 1000.0, cfg.NominalPositionSize(), 1e-9)
}

func TestTradingValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Trading)
		errMsg string
	}{
		{"valid", func(*Trading) {}, ""},
		{"zero capital", func(c *Trading) { c.InitialCapital = 0 }, "initial_capital"},
		{"negative capital", func(c *Trading) { c.InitialCapital = -1 }, "initial_capital"},
		{"position size zero", func(c *Trading) { c.PositionSizePercent = 0 }, "position_size_percent"},
		{"position size one", func(c *Trading) { c.PositionSizePercent = 1 }, "position_size_percent"},
		{"negative commission", func(c *Trading) { c.FixedCommission = -0.5 }, "fixed_commission"},
		{"negative variable fee", func(c *Trading) { c.VariableFee = -0.1 }, "variable_fee"},
		{"negative spread", func(c *Trading) { c.BidAskSpread = -0.1 }, "bid_ask_spread"},
		{"negative risk free", func(c *Trading) { c.RiskFreeRate = -0.01 }, "risk_free_rate"},
		{"zero costs allowed", func(c *Trading) { c.FixedCommission, c.VariableFee, c.BidAskSpread = 0, 0, 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTrading()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestTradingMerge(t *testing.T) {
	base := DefaultTrading()

	merged, err := base.Merge(TradingOverrides{
		InitialCapital:  ptr(5000.0),
		FixedCommission: ptr(0.0),
	})
	require.NoError(t, err)
	assert.Equal(t, 5000.0, merged.InitialCapital)
	assert.Equal(t, 0.0, merged.FixedCommission)
	assert.Equal(t, base.PositionSizePercent, merged.PositionSizePercent)
	assert.Equal(t, base.VariableFee, merged.VariableFee)

	// base is untouched
	assert.Equal(t, 100000.0, base.InitialCapital)

	_, err = base.Merge(TradingOverrides{PositionSizePercent: ptr(1.5)})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	assert.True(t, TradingOverrides{}.IsZero())
	assert.False(t, TradingOverrides{RiskFreeRate: ptr(0.02)}.IsZero())
}

func TestTradingFileRoundTrip(t *testing.T) {
	dir := t.TempDir()

	for _, ext := range []string{".yaml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			cfg := DefaultTrading()
			cfg.InitialCapital = 2500
			cfg.PositionSizePercent = 0.2

			path := filepath.Join(dir, "trading"+ext)
			require.NoError(t, SaveTradingFile(path, cfg))

			loaded, err := LoadTradingFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadTradingFilePartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("initial_capital: 1000\nfixed_commission: 0\n"), 0o644))

	cfg, err := LoadTradingFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, cfg.InitialCapital)
	assert.Equal(t, 0.0, cfg.FixedCommission)
	assert.Equal(t, 0.01, cfg.PositionSizePercent)
}

func TestLoadTradingFileInvalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadTradingFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("position_size_percent: 2\n"), 0o644))
	_, err = LoadTradingFile(bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
