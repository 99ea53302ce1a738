package tabular

import (
	"fmt"
	"strconv"
	"strings"
)

// Keyword sets for column role classification. A column name containing
// any keyword (substring match) takes that role; the first matching
// column per role wins. Absence of a match is valid.
var (
	personKeywords  = []string{"name", "employee", "consultant", "person"}
	projectKeywords = []string{"project", "task", "client"}
	dateKeywords    = []string{"date", "time", "period"}
)

// columnRoles holds the index of the column classified into each role,
// or -1 when no column matched.
type columnRoles struct {
	person  int
	project int
	date    int
}

// classifyColumns assigns person/project/date roles to columns by
// keyword. Column names are expected in canonical form already.
func classifyColumns(columns []string) columnRoles {
	roles := columnRoles{person: -1, project: -1, date: -1}
	roles.person = firstMatch(columns, personKeywords)
	roles.project = firstMatch(columns, projectKeywords)
	roles.date = firstMatch(columns, dateKeywords)
	return roles
}

func firstMatch(columns []string, keywords []string) int {
	for i, col := range columns {
		for _, kw := range keywords {
			if strings.Contains(col, kw) {
				return i
			}
		}
	}
	return -1
}

// canonicalName converts a raw header cell into canonical form:
// trimmed, lowercased, inner spaces replaced by underscores. Empty
// headers get a positional name.
func canonicalName(raw string, position int) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return fmt.Sprintf("unnamed_%d", position)
	}
	name = strings.ToLower(name)
	return strings.Join(strings.Fields(name), "_")
}

// isNumericColumn reports whether every non-missing cell in the column
// parses as a number, with at least one such cell present.
func isNumericColumn(rows [][]string, missing [][]bool, col int) bool {
	seen := false
	for i, row := range rows {
		if missing[i][col] {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}
