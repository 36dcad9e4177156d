// Package sqlite is a single-file run journal for local, server-less use.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Schema creates the journal tables.
const Schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id     TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	market     TEXT NOT NULL DEFAULT '',
	filter     TEXT NOT NULL DEFAULT '',
	config     TEXT NOT NULL,
	report     TEXT NOT NULL,
	trades     INTEGER NOT NULL DEFAULT 0,
	skipped    INTEGER NOT NULL DEFAULT 0,
	rejected   INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_backtest_runs_created ON backtest_runs (created_at);

CREATE TABLE IF NOT EXISTS daily_snapshots (
	run_id            TEXT NOT NULL,
	date              TEXT NOT NULL,
	available_capital REAL NOT NULL,
	invested_capital  REAL NOT NULL,
	total_capital     REAL NOT NULL,
	daily_pnl         REAL NOT NULL,
	daily_costs       REAL NOT NULL,
	active_positions  INTEGER NOT NULL,
	cumulative_pnl    REAL NOT NULL,
	cumulative_costs  REAL NOT NULL,
	net_performance   REAL NOT NULL,
	performance_pct   REAL NOT NULL,
	PRIMARY KEY (run_id, date)
);
`

// DB is an open journal database.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path and applies Schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// isDuplicateKeyError checks if error is a primary key or unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
