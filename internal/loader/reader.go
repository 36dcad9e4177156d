// Package loader reads trade tables and market data from CSV files.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"pairs-backtest-lab/internal/domain"
)

// ErrMissingColumn is returned when a required header column is absent.
var ErrMissingColumn = errors.New("missing required column")

// RowError describes a data row that could not be parsed. Line is 1-based and counts the header.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// newCSVReader wraps r so that UTF-8 and UTF-16 files with a byte order mark decode to UTF-8.
func newCSVReader(r io.Reader) *csv.Reader {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr
}

// header maps lower-cased column names to their index.
type header map[string]int

func readHeader(cr *csv.Reader, required ...string) (header, error) {
	row, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	h := make(header, len(row))
	for i, name := range row {
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := h[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return h, nil
}

// get returns the trimmed value of column name, or "" when the column or cell is absent.
func (h header) get(row []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseTime parses an epoch-millisecond integer, an ISO date, or an RFC 3339 timestamp.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return domain.FromUnixMilli(ms), nil
	}
	for _, layout := range []string{domain.DateLayout, time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.Trim(s, `"`), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", name, s)
	}
	return v, nil
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
