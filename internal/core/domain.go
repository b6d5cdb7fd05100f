package core

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// UnknownCategory is used for records whose category cell is blank.
const UnknownCategory = "Unknown"

type (
	// Record is one normalized row of the payments sheet.
	Record struct {
		Name     string  `json:"name"`
		Amount   float64 `json:"amount"`
		Category string  `json:"category"`
		Contact  string  `json:"contact"`
	}

	// Table is a parsed delimited table: a header row followed by data rows.
	// Rows may be ragged; missing cells read as blank.
	Table struct {
		Header []string
		Rows   [][]string
	}

	// Snapshot is a read-only copy of the aggregator state handed to presentation code.
	Snapshot struct {
		Records     []Record   `json:"records"`
		Loading     bool       `json:"loading"`
		Error       string     `json:"error,omitempty"`
		LastUpdated *time.Time `json:"lastUpdated"`
		Summary     Summary    `json:"summary"`
		Version     uint64     `json:"version"`
	}
)

// Cell returns the trimmed value at column idx of row, or "" when out of range.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// CloneRecords returns a copy of the records slice.
func CloneRecords(in []Record) []Record {
	if in == nil {
		return nil
	}
	out := make([]Record, len(in))
	copy(out, in)
	return out
}

// HasData reports whether the snapshot carries any records.
func (s Snapshot) HasData() bool {
	return len(s.Records) > 0
}

// TopRecords returns up to n records ordered by amount, highest first.
// Equal amounts keep their sheet order. The input is not modified.
func TopRecords(records []Record, n int) []Record {
	sorted := CloneRecords(records)
	slices.SortStableFunc(sorted, func(a, b Record) int {
		return cmp.Compare(b.Amount, a.Amount)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
