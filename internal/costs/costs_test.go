package costs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pairs-backtest-lab/internal/config"
)

func TestSide(t *testing.T) {
	cfg := config.DefaultTrading()

	// 1.0 + 1000*0.00018 + 1000*0.001 = 2.18
	assert.InDelta(t, 2.18, Side(1000, cfg), 1e-9)
	// fixed commission only when notional is zero
	assert.InDelta(t, 1.0, Side(0, cfg), 1e-12)
}

func TestCalculate(t *testing.T) {
	cfg := config.Trading{
		InitialCapital:      1000,
		PositionSizePercent: 0.5,
		FixedCommission:     2,
		VariableFee:         0.01,
		BidAskSpread:        0.02,
	}

	entry, exit := Calculate(500, 550, cfg)
	assert.InDelta(t, 2+5+10, entry, 1e-9)
	assert.InDelta(t, 2+5.5+11, exit, 1e-9)
	assert.NotEqual(t, entry, exit)

	entry, exit = Calculate(500, 500, cfg)
	assert.Equal(t, entry, exit)
}

func TestItemizeMatchesSide(t *testing.T) {
	cfg := config.DefaultTrading()

	for _, notional := range []float64{0, 1, 999.5, 123456.78} {
		b := Itemize(notional, cfg)
		assert.Equal(t, cfg.FixedCommission, b.Commission)
		assert.InDelta(t, notional*cfg.VariableFee, b.Variable, 1e-12)
		assert.InDelta(t, notional*cfg.BidAskSpread, b.Spread, 1e-12)
		assert.InDelta(t, Side(notional, cfg), b.Total(), 1e-9)
	}
}

func TestZeroCostConfig(t *testing.T) {
	cfg := config.Trading{InitialCapital: 1000, PositionSizePercent: 0.5}
	entry, exit := Calculate(500, 550, cfg)
	assert.Zero(t, entry)
	assert.Zero(t, exit)
}
