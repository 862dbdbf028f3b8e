// Package idhash computes deterministic identifiers so that re-validating
// the same artifacts yields the same keys in storage.
package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// ComputeRunID computes a deterministic run identifier.
// Formula: SHA256(ea_name|symbol|timeframe|from|to|report_path), truncated
// to 16 bytes and base58-encoded so it stays usable in file names and URLs.
func ComputeRunID(eaName, symbol, timeframe, fromDate, toDate, reportPath string) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		eaName,
		symbol,
		timeframe,
		fromDate,
		toDate,
		reportPath,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:16])
}

// ComputeTradeKey computes a deterministic per-trade key within a run.
// Formula: SHA256(run_id|close_index|deal_id), truncated and base58-encoded.
// The close index disambiguates synthesized entries that share a deal ID of 0.
func ComputeTradeKey(runID string, closeIndex int, dealID int64) string {
	data := fmt.Sprintf("%s|%d|%d", runID, closeIndex, dealID)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:16])
}
