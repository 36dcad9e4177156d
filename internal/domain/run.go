package domain

import "time"

// Run is the persisted record of one simulation invocation.
// Corresponds to the backtest_runs table.
type Run struct {
	RunID     string // ULID, time-sortable
	Name      string // free-form label, e.g. a comparison variant
	Market    string
	Filter    string // human-readable description of the query filter
	Config    []byte // trading config as JSON
	Report    []byte // performance report as JSON
	Trades    int    // executed trades
	Skipped   int
	Rejected  int
	CreatedAt time.Time
}
