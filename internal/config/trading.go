package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a trading configuration field is outside its domain.
var ErrInvalidConfig = errors.New("invalid trading config")

// Trading holds the capital and cost parameters of one simulation run.
type Trading struct {
	InitialCapital      float64 `json:"initial_capital" yaml:"initial_capital" mapstructure:"initial_capital"`
	PositionSizePercent float64 `json:"position_size_percent" yaml:"position_size_percent" mapstructure:"position_size_percent"` // fraction of available capital per new position
	FixedCommission     float64 `json:"fixed_commission" yaml:"fixed_commission" mapstructure:"fixed_commission"`                // flat fee per entry and per exit
	VariableFee         float64 `json:"variable_fee" yaml:"variable_fee" mapstructure:"variable_fee"`                            // proportional fee on notional
	BidAskSpread        float64 `json:"bid_ask_spread" yaml:"bid_ask_spread" mapstructure:"bid_ask_spread"`                      // proportional spread cost on notional
	RiskFreeRate        float64 `json:"risk_free_rate" yaml:"risk_free_rate" mapstructure:"risk_free_rate"`                      // carried for downstream Sharpe consumers
}

// DefaultTrading returns the default trading configuration.
func DefaultTrading() Trading {
	return Trading{
		InitialCapital:      100000,
		PositionSizePercent: 0.01,
		FixedCommission:     1.0,
		VariableFee:         0.00018,
		BidAskSpread:        0.001,
		RiskFreeRate:        0.0,
	}
}

// Validate checks every field against its valid domain.
func (t Trading) Validate() error {
	if !(t.InitialCapital > 0) {
		return fmt.Errorf("%w: initial_capital must be > 0", ErrInvalidConfig)
	}
	if !(t.PositionSizePercent > 0 && t.PositionSizePercent < 1) {
		return fmt.Errorf("%w: position_size_percent must be between 0 and 1", ErrInvalidConfig)
	}
	if !(t.FixedCommission >= 0) {
		return fmt.Errorf("%w: fixed_commission must be >= 0", ErrInvalidConfig)
	}
	if !(t.VariableFee >= 0) {
		return fmt.Errorf("%w: variable_fee must be >= 0", ErrInvalidConfig)
	}
	if !(t.BidAskSpread >= 0) {
		return fmt.Errorf("%w: bid_ask_spread must be >= 0", ErrInvalidConfig)
	}
	if !(t.RiskFreeRate >= 0) {
		return fmt.Errorf("%w: risk_free_rate must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// NominalPositionSize is the position size implied by configuration alone
// (initial_capital * position_size_percent).
func (t Trading) NominalPositionSize() float64 {
	return t.InitialCapital * t.PositionSizePercent
}

// TradingOverrides carries optional replacements for individual trading fields.
// Nil fields keep the base value.
type TradingOverrides struct {
	InitialCapital      *float64 `json:"initial_capital,omitempty" yaml:"initial_capital,omitempty"`
	PositionSizePercent *float64 `json:"position_size_percent,omitempty" yaml:"position_size_percent,omitempty"`
	FixedCommission     *float64 `json:"fixed_commission,omitempty" yaml:"fixed_commission,omitempty"`
	VariableFee         *float64 `json:"variable_fee,omitempty" yaml:"variable_fee,omitempty"`
	BidAskSpread        *float64 `json:"bid_ask_spread,omitempty" yaml:"bid_ask_spread,omitempty"`
	RiskFreeRate        *float64 `json:"risk_free_rate,omitempty" yaml:"risk_free_rate,omitempty"`
}

// IsZero reports whether no override is set.
func (o TradingOverrides) IsZero() bool {
	return o == (TradingOverrides{})
}

// Merge applies overrides on top of t and validates the result.
func (t Trading) Merge(o TradingOverrides) (Trading, error) {
	out := t
	if o.InitialCapital != nil {
		out.InitialCapital = *o.InitialCapital
	}
	if o.PositionSizePercent != nil {
		out.PositionSizePercent = *o.PositionSizePercent
	}
	if o.FixedCommission != nil {
		out.FixedCommission = *o.FixedCommission
	}
	if o.VariableFee != nil {
		out.VariableFee = *o.VariableFee
	}
	if o.BidAskSpread != nil {
		out.BidAskSpread = *o.BidAskSpread
	}
	if o.RiskFreeRate != nil {
		out.RiskFreeRate = *o.RiskFreeRate
	}
	if err := out.Validate(); err != nil {
		return Trading{}, err
	}
	return out, nil
}

// LoadTradingFile loads a trading profile from a YAML or JSON file.
// Fields missing from the file keep their defaults.
func LoadTradingFile(path string) (Trading, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Trading{}, fmt.Errorf("read trading config: %w", err)
	}

	cfg := DefaultTrading()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		cfg = DefaultTrading()
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Trading{}, fmt.Errorf("parse trading config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Trading{}, err
	}
	return cfg, nil
}

// SaveTradingFile writes t as YAML (.yaml/.yml) or indented JSON (anything else).
func SaveTradingFile(path string, t Trading) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(t)
	} else {
		data, err = json.MarshalIndent(t, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal trading config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write trading config: %w", err)
	}
	return nil
}
