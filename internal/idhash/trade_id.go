// Package idhash derives identifiers for trades and runs.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ComputeTradeID computes a deterministic trade_id for a row that has none.
// Formula: SHA256(market|symbol|paired_symbol|entry_date|exit_date|position_type|row)
// Dates are formatted as ISO calendar days; row is the row index in the source file,
// so identical rows still get distinct IDs. Returns the first 16 bytes hex-encoded.
func ComputeTradeID(
	market string,
	symbol string,
	pairedSymbol string,
	entryDate time.Time,
	exitDate time.Time,
	positionType string,
	row int,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d",
		market,
		symbol,
		pairedSymbol,
		entryDate.UTC().Format("2006-01-02"),
		exitDate.UTC().Format("2006-01-02"),
		positionType,
		row,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
