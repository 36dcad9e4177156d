// Package simulation implements the day-stepped portfolio simulation over a trade table.
package simulation

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/costs"
	"pairs-backtest-lab/internal/domain"
)

// Engine simulates capital allocation over a trade table, one calendar day at a time.
// An Engine holds only its configuration; every Run owns fresh state, so one Engine
// may be used from several goroutines.
type Engine struct {
	cfg config.Trading
}

// New validates cfg and returns an Engine. Configuration errors wrap config.ErrInvalidConfig.
func New(cfg config.Trading) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's trading configuration.
func (e *Engine) Config() config.Trading {
	return e.cfg
}

// Simulate is shorthand for New(cfg) followed by Run(trades).
func Simulate(trades []domain.Trade, cfg config.Trading) (*domain.SimulationResult, error) {
	e, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return e.Run(trades), nil
}

// runState is the mutable portfolio state of a single run.
type runState struct {
	available float64
	invested  float64
	positions *positionBook
}

// Run walks every calendar day from the earliest entry to the latest exit (inclusive).
// On each day it opens the trades entering that day in row order, then closes the
// trades exiting that day, then records a snapshot.
//
// Rows failing validation are reported in Rejected and never simulated. Trades that
// cannot be funded are reported in Skipped. An empty or fully rejected table yields
// a result with no timeseries.
func (e *Engine) Run(trades []domain.Trade) *domain.SimulationResult {
	result := &domain.SimulationResult{}

	valid := e.admit(trades, result)
	if len(valid) == 0 {
		return result
	}

	entries := make(map[time.Time][]int)
	exits := make(map[time.Time][]int)
	first, last := domain.Day(valid[0].EntryDate), domain.Day(valid[0].ExitDate)
	for i := range valid {
		entryDay, exitDay := domain.Day(valid[i].EntryDate), domain.Day(valid[i].ExitDate)
		entries[entryDay] = append(entries[entryDay], i)
		exits[exitDay] = append(exits[exitDay], i)
		if entryDay.Before(first) {
			first = entryDay
		}
		if exitDay.After(last) {
			last = exitDay
		}
	}

	state := &runState{
		available: e.cfg.InitialCapital,
		positions: newPositionBook(),
	}

	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		var entryCosts, exitCosts, pnl float64

		for _, i := range entries[day] {
			cost, ok := e.open(state, &valid[i])
			if !ok {
				result.Skipped = append(result.Skipped, valid[i].TradeID)
				continue
			}
			entryCosts += cost
		}

		for _, i := range exits[day] {
			closed, ok := e.close(state, &valid[i])
			if !ok {
				continue
			}
			result.Performances = append(result.Performances, closed.performance)
			result.Costs = append(result.Costs, closed.cost)
			exitCosts += closed.exitCost
			pnl += closed.pnl
		}

		result.Timeseries = append(result.Timeseries, domain.DailySnapshot{
			Date:             day,
			AvailableCapital: state.available,
			InvestedCapital:  state.invested,
			TotalCapital:     state.available + state.invested,
			DailyPnL:         pnl,
			DailyCosts:       entryCosts + exitCosts,
			ActivePositions:  state.positions.len(),
		})
	}

	accumulate(result.Timeseries, e.cfg.InitialCapital)
	return result
}

// admit validates rows, assigns row-index IDs to rows without one and rejects duplicates.
// Accepted rows keep their original order.
func (e *Engine) admit(trades []domain.Trade, result *domain.SimulationResult) []domain.Trade {
	valid := make([]domain.Trade, 0, len(trades))
	seen := make(map[string]struct{}, len(trades))

	for i, t := range trades {
		if t.TradeID == "" {
			t.TradeID = strconv.Itoa(i)
		}
		if err := t.Validate(); err != nil {
			result.Rejected = append(result.Rejected, domain.RejectedTrade{TradeID: t.TradeID, Reason: err.Error()})
			continue
		}
		if _, dup := seen[t.TradeID]; dup {
			result.Rejected = append(result.Rejected, domain.RejectedTrade{
				TradeID: t.TradeID,
				Reason:  fmt.Sprintf("duplicate trade_id %q", t.TradeID),
			})
			continue
		}
		seen[t.TradeID] = struct{}{}
		valid = append(valid, t)
	}
	return valid
}

// open sizes and commits a new position. It reports false when the trade must be skipped.
func (e *Engine) open(s *runState, t *domain.Trade) (float64, bool) {
	size := math.Min(s.available*e.cfg.PositionSizePercent, s.available)
	if size <= 0 {
		return 0, false
	}

	entryCost, _ := costs.Calculate(size, 0, e.cfg)
	// Fees must be payable from what is left once the position is funded.
	if size+entryCost > s.available {
		return 0, false
	}

	s.available -= size + entryCost
	s.invested += size
	s.positions.add(&domain.OpenPosition{
		TradeID:      t.TradeID,
		Units:        size / t.EntryPrice,
		PositionSize: size,
		EntryPrice:   t.EntryPrice,
		PositionType: t.PositionType,
		EntryCosts:   costs.Itemize(size, e.cfg),
	})
	return entryCost, true
}

type closedTrade struct {
	performance domain.TradePerformance
	cost        domain.TradeCost
	exitCost    float64
	pnl         float64
}

// close realizes an open position at the trade's exit price. It reports false
// when the trade has no open position (it was skipped at entry).
func (e *Engine) close(s *runState, t *domain.Trade) (closedTrade, bool) {
	pos, ok := s.positions.get(t.TradeID)
	if !ok {
		return closedTrade{}, false
	}

	exitValue := pos.Units * t.ExitPrice
	_, exitCost := costs.Calculate(pos.PositionSize, exitValue, e.cfg)

	pnl := (t.ExitPrice - pos.EntryPrice) * pos.Units
	if pos.PositionType == domain.PositionShort {
		pnl = (pos.EntryPrice - t.ExitPrice) * pos.Units
	}
	raw := domain.RawPerformance(pos.PositionType, pos.EntryPrice, t.ExitPrice)

	exitBreakdown := costs.Itemize(exitValue, e.cfg)
	total := pos.EntryCosts.Total() + exitBreakdown.Total()

	// cost_impact is normalized against the nominal position size implied by the
	// configuration, not the capital actually committed. A capital-constrained
	// (smaller) position therefore shows the same fixed commission at the same
	// weight as any other trade. Keep this basis.
	impact := total / e.cfg.NominalPositionSize()

	s.invested -= pos.PositionSize
	s.available += pos.PositionSize + pnl - exitCost
	s.positions.remove(t.TradeID)

	return closedTrade{
		performance: domain.TradePerformance{
			TradeID:        t.TradeID,
			RawPerformance: raw,
			CostImpact:     impact,
			NetPerformance: raw - impact,
		},
		cost: domain.TradeCost{
			TradeID: t.TradeID,
			Entry:   pos.EntryCosts,
			Exit:    exitBreakdown,
			Total:   total,
		},
		exitCost: exitCost,
		pnl:      pnl,
	}, true
}

// accumulate fills the running columns of the day sequence.
func accumulate(days []domain.DailySnapshot, initialCapital float64) {
	var cumPnL, cumCosts float64
	for i := range days {
		cumPnL += days[i].DailyPnL
		cumCosts += days[i].DailyCosts
		days[i].CumulativePnL = cumPnL
		days[i].CumulativeCosts = cumCosts
		days[i].NetPerformance = cumPnL - cumCosts
		days[i].PerformancePct = days[i].NetPerformance / initialCapital
	}
}
