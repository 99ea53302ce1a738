package tabular

import (
	"encoding/csv"
	"io"
)

// Table is the cleaned snapshot of an uploaded spreadsheet: canonical
// column names and normalized cell values, in input order.
type Table struct {
	Columns []string
	Rows    [][]string

	// missing marks cells that were empty in the upload. Filled values
	// (zero for numeric columns, the placeholder for text columns) keep
	// their missing mark so serialization can tell a real zero from a
	// filled one.
	missing [][]bool
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	return len(t.Columns)
}

// Missing reports whether the cell at (row, col) was empty in the
// original upload.
func (t *Table) Missing(row, col int) bool {
	if row < 0 || row >= len(t.missing) || col < 0 || col >= len(t.missing[row]) {
		return false
	}
	return t.missing[row][col]
}

// WriteCSV writes the table, header first, as CSV.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
