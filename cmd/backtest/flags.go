package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/loader"
	"pairs-backtest-lab/internal/query"
)

// filterOptions restrict the trade table before simulation.
type filterOptions struct {
	symbol string
	pair   string
	window int
	from   string
	to     string
}

func (f *filterOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.symbol, "symbol", "", "Only trades on this symbol")
	cmd.Flags().StringVar(&f.pair, "pair", "", "Only trades of this pair, as SYMBOL1,SYMBOL2")
	cmd.Flags().IntVar(&f.window, "window", 0, "Only trades with this rolling window")
	cmd.Flags().StringVar(&f.from, "from", "", "Only trades entered on or after this date")
	cmd.Flags().StringVar(&f.to, "to", "", "Only trades entered on or before this date")
}

func (f *filterOptions) filter(cmd *cobra.Command) (query.Filter, error) {
	out := query.Filter{Symbol: strings.TrimSpace(f.symbol)}

	if f.pair != "" {
		parts := strings.Split(f.pair, ",")
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			return query.Filter{}, fmt.Errorf("--pair must be SYMBOL1,SYMBOL2, got %q", f.pair)
		}
		out.Pair = [2]string{strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])}
	}
	if cmd.Flags().Changed("window") {
		w := f.window
		out.Window = &w
	}
	if f.from != "" {
		t, err := loader.ParseTime(f.from)
		if err != nil {
			return query.Filter{}, fmt.Errorf("--from: %w", err)
		}
		out.From = t
	}
	if f.to != "" {
		t, err := loader.ParseTime(f.to)
		if err != nil {
			return query.Filter{}, fmt.Errorf("--to: %w", err)
		}
		out.To = t
	}
	return out, nil
}

// overrideOptions replace individual trading config fields.
type overrideOptions struct {
	values config.Trading
}

func (o *overrideOptions) bind(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&o.values.InitialCapital, "initial-capital", 0, "Starting capital")
	cmd.Flags().Float64Var(&o.values.PositionSizePercent, "position-size", 0, "Fraction of available capital per position (0..1)")
	cmd.Flags().Float64Var(&o.values.FixedCommission, "commission", 0, "Fixed commission per entry and exit")
	cmd.Flags().Float64Var(&o.values.VariableFee, "variable-fee", 0, "Proportional fee on notional")
	cmd.Flags().Float64Var(&o.values.BidAskSpread, "spread", 0, "Proportional bid/ask spread cost")
	cmd.Flags().Float64Var(&o.values.RiskFreeRate, "risk-free-rate", 0, "Risk-free rate")
}

// overrides returns only the fields set on the command line.
func (o *overrideOptions) overrides(cmd *cobra.Command) config.TradingOverrides {
	var out config.TradingOverrides
	set := func(name string, v float64) *float64 {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		return &v
	}
	out.InitialCapital = set("initial-capital", o.values.InitialCapital)
	out.PositionSizePercent = set("position-size", o.values.PositionSizePercent)
	out.FixedCommission = set("commission", o.values.FixedCommission)
	out.VariableFee = set("variable-fee", o.values.VariableFee)
	out.BidAskSpread = set("spread", o.values.BidAskSpread)
	out.RiskFreeRate = set("risk-free-rate", o.values.RiskFreeRate)
	return out
}
