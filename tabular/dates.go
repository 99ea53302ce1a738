package tabular

import (
	"strings"
	"time"
)

// dateLabelFormat is how parsed dates are rendered in snapshots and
// chunk text ("January 2, 2006" style).
const dateLabelFormat = "January 2, 2006"

// dateFormats are the candidate layouts tried when parsing date-like
// columns, in order. The first layout that parses an entire column is
// used for that column; otherwise each value is inferred independently.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
}

// isDateColumn reports whether a canonical column name looks date-like.
func isDateColumn(name string) bool {
	return strings.Contains(name, "date") || strings.Contains(name, "time")
}

// normalizeDateColumn rewrites the column's values into the canonical
// date label. Unparseable values are left exactly as they were, never
// zeroed or blanked.
func normalizeDateColumn(rows [][]string, missing [][]bool, col int) {
	// Prefer one layout for the whole column.
	if layout, ok := wholeColumnLayout(rows, missing, col); ok {
		for i, row := range rows {
			if missing[i][col] {
				continue
			}
			if ts, err := time.Parse(layout, strings.TrimSpace(row[col])); err == nil {
				row[col] = ts.Format(dateLabelFormat)
			}
		}
		return
	}

	// Permissive per-value inference.
	for i, row := range rows {
		if missing[i][col] {
			continue
		}
		if ts, ok := inferDate(row[col]); ok {
			row[col] = ts.Format(dateLabelFormat)
		}
	}
}

// wholeColumnLayout returns the first candidate layout that parses
// every non-missing value in the column.
func wholeColumnLayout(rows [][]string, missing [][]bool, col int) (string, bool) {
	for _, layout := range dateFormats {
		all := true
		seen := false
		for i, row := range rows {
			if missing[i][col] {
				continue
			}
			seen = true
			if _, err := time.Parse(layout, strings.TrimSpace(row[col])); err != nil {
				all = false
				break
			}
		}
		if all && seen {
			return layout, true
		}
	}
	return "", false
}

// inferDate tries every candidate layout against a single value.
func inferDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateFormats {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
