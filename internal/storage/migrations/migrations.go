// Package migrations embeds the PostgreSQL and ClickHouse schemas and applies them once per database.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

//go:embed postgres/*.sql clickhouse/*.sql
var files embed.FS

// Migration is one embedded schema file split into statements.
type Migration struct {
	Name       string // file name, e.g. 001_trades.sql
	Statements []string
}

// Postgres returns the PostgreSQL migrations in apply order.
func Postgres() ([]Migration, error) {
	return load("postgres")
}

// Clickhouse returns the ClickHouse migrations in apply order.
func Clickhouse() ([]Migration, error) {
	return load("clickhouse")
}

// load reads every .sql file under dir. fs.ReadDir returns entries sorted by name,
// so the numeric prefix decides the order.
func load(dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var out []Migration
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		data, err := fs.ReadFile(files, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		if err := checkQuotedSemicolons(string(data)); err != nil {
			return nil, fmt.Errorf("migration %s: %w", e.Name(), err)
		}
		stmts := splitStatements(string(data))
		if len(stmts) == 0 {
			continue
		}
		out = append(out, Migration{Name: e.Name(), Statements: stmts})
	}
	return out, nil
}

// splitStatements drops -- comment lines and splits the rest on semicolons.
func splitStatements(input string) []string {
	var kept []string
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		kept = append(kept, line)
	}

	var stmts []string
	for _, part := range strings.Split(strings.Join(kept, "\n"), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// checkQuotedSemicolons rejects SQL with a semicolon inside a single-quoted literal,
// which splitStatements would cut in half.
func checkQuotedSemicolons(sql string) error {
	quoted := false
	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '\'':
			if quoted && i+1 < len(sql) && sql[i+1] == '\'' {
				i++
				continue
			}
			quoted = !quoted
		case ';':
			if quoted {
				return fmt.Errorf("semicolon inside string literal at offset %d", i)
			}
		}
	}
	return nil
}

func pending(all []Migration, applied map[string]bool) []Migration {
	var out []Migration
	for _, m := range all {
		if !applied[m.Name] {
			out = append(out, m)
		}
	}
	return out
}
