package migrations

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClickhouseConn is the part of a ClickHouse connection the runner uses.
type ClickhouseConn interface {
	Exec(ctx context.Context, query string, args ...any) error
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
}

const clickhouseJournal = `CREATE TABLE IF NOT EXISTS schema_migrations (
	name       String,
	applied_at DateTime64(3, 'UTC')
) ENGINE = ReplacingMergeTree
ORDER BY name`

// ApplyClickhouse applies the migrations missing from schema_migrations and returns
// the names it applied. ClickHouse has no DDL transactions, so every schema file uses
// IF NOT EXISTS and a failed run can be repeated.
func ApplyClickhouse(ctx context.Context, conn ClickhouseConn) ([]string, error) {
	all, err := Clickhouse()
	if err != nil {
		return nil, err
	}

	if err := conn.Exec(ctx, clickhouseJournal); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := clickhouseApplied(ctx, conn)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, m := range pending(all, applied) {
		// the native protocol takes one statement per Exec
		for _, stmt := range m.Statements {
			if err := conn.Exec(ctx, stmt); err != nil {
				return done, fmt.Errorf("apply migration %s: %w", m.Name, err)
			}
		}
		if err := conn.Exec(ctx, `INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`, m.Name, time.Now().UTC()); err != nil {
			return done, fmt.Errorf("record migration %s: %w", m.Name, err)
		}
		done = append(done, m.Name)
	}
	return done, nil
}

func clickhouseApplied(ctx context.Context, conn ClickhouseConn) (map[string]bool, error) {
	rows, err := conn.Query(ctx, `SELECT name FROM schema_migrations FINAL`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		applied[name] = true
	}
	return applied, rows.Err()
}
