// Copyright 2026 Crewlens Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/crewlens/crewlens/core"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"
)

// placeholder fills missing cells in non-numeric columns. Placeholder
// values never appear in chunk text.
const placeholder = "Not Specified"

// Sentinel metadata values used when a role column is absent or its
// cell is empty.
const (
	UnknownPerson  = "Unknown"
	GeneralProject = "General"
	OngoingDate    = "Ongoing"
)

var titleCaser = cases.Title(language.English)

// Normalize parses raw upload bytes into a cleaned table and one
// RowChunk per data row. The declared filename selects the parser (CSV
// by extension, spreadsheet otherwise). Row order is preserved, and
// identical input bytes always produce identical output.
func Normalize(filename string, data []byte) (*Table, []core.RowChunk, error) {
	grid, err := parseGrid(filename, data)
	if err != nil {
		return nil, nil, err
	}
	if len(grid) == 0 {
		return nil, nil, fmt.Errorf("%w: file contains no rows", ErrParse)
	}

	table := buildTable(grid)
	chunks := serializeRows(table)
	return table, chunks, nil
}

// parseGrid decodes the upload into a raw cell grid.
func parseGrid(filename string, data []byte) ([][]string, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return parseCSV(data)
	}
	return parseWorkbook(data)
}

// parseCSV reads CSV bytes, falling back from UTF-8 to latin-1 when the
// payload is not valid UTF-8 or fails to parse.
func parseCSV(data []byte) ([][]string, error) {
	primaryErr := error(nil)
	if utf8.Valid(data) {
		rows, err := readCSV(bytes.NewReader(data))
		if err == nil {
			return rows, nil
		}
		primaryErr = err
	}

	decoded := charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(data))
	rows, err := readCSV(decoded)
	if err != nil {
		if primaryErr != nil {
			return nil, fmt.Errorf("%w: %v (latin-1 fallback: %v)", ErrParse, primaryErr, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}

// parseWorkbook reads the first sheet of an xlsx workbook.
func parseWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrParse)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return rows, nil
}

// buildTable turns a raw grid into a cleaned Table: rectangular shape,
// canonical column names, empty rows/columns dropped, dates formatted,
// missing cells filled.
func buildTable(grid [][]string) *Table {
	width := 0
	for _, row := range grid {
		if len(row) > width {
			width = len(row)
		}
	}

	header := make([]string, width)
	for i := 0; i < width; i++ {
		raw := ""
		if i < len(grid[0]) {
			raw = grid[0][i]
		}
		header[i] = canonicalName(raw, i)
	}

	// Rectangularize data rows, dropping wholly-empty ones.
	var rows [][]string
	var missing [][]bool
	for _, raw := range grid[1:] {
		row := make([]string, width)
		mask := make([]bool, width)
		empty := true
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(raw) {
				cell = strings.TrimSpace(raw[i])
			}
			row[i] = cell
			mask[i] = cell == ""
			if cell != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		rows = append(rows, row)
		missing = append(missing, mask)
	}

	// Drop wholly-empty columns.
	keep := make([]int, 0, width)
	for col := 0; col < width; col++ {
		hasData := false
		for i := range rows {
			if !missing[i][col] {
				hasData = true
				break
			}
		}
		if hasData {
			keep = append(keep, col)
		}
	}
	columns := make([]string, len(keep))
	for i, col := range keep {
		columns[i] = header[col]
	}
	prunedRows := make([][]string, len(rows))
	prunedMissing := make([][]bool, len(rows))
	for i := range rows {
		prunedRows[i] = make([]string, len(keep))
		prunedMissing[i] = make([]bool, len(keep))
		for j, col := range keep {
			prunedRows[i][j] = rows[i][col]
			prunedMissing[i][j] = missing[i][col]
		}
	}

	// Per-column normalization: dates formatted, missing cells filled.
	// Filled cells keep their missing mark.
	for col, name := range columns {
		switch {
		case isDateColumn(name):
			normalizeDateColumn(prunedRows, prunedMissing, col)
			fillMissing(prunedRows, prunedMissing, col, placeholder)
		case isNumericColumn(prunedRows, prunedMissing, col):
			fillMissing(prunedRows, prunedMissing, col, "0")
		default:
			fillMissing(prunedRows, prunedMissing, col, placeholder)
		}
	}

	return &Table{Columns: columns, Rows: prunedRows, missing: prunedMissing}
}

func fillMissing(rows [][]string, missing [][]bool, col int, value string) {
	for i := range rows {
		if missing[i][col] {
			rows[i][col] = value
		}
	}
}

// serializeRows renders each row into one natural-language record plus
// structured metadata. Missing and placeholder cells are omitted from
// the sentence body; genuine zeros stay in.
func serializeRows(table *Table) []core.RowChunk {
	roles := classifyColumns(table.Columns)

	chunks := make([]core.RowChunk, 0, len(table.Rows))
	for idx, row := range table.Rows {
		person := UnknownPerson
		project := GeneralProject
		date := OngoingDate
		var parts []string

		for col, value := range row {
			if table.missing[idx][col] || value == "" || value == placeholder {
				continue
			}
			switch col {
			case roles.person:
				person = value
				continue
			case roles.project:
				project = value
				continue
			case roles.date:
				date = value
				continue
			}
			label := titleCaser.String(strings.ReplaceAll(table.Columns[col], "_", " "))
			parts = append(parts, label+": "+value)
		}

		var text string
		if len(parts) > 0 {
			text = fmt.Sprintf("%s (%s): %s", person, project, strings.Join(parts, "; "))
		} else {
			text = fmt.Sprintf("%s worked on %s", person, project)
		}

		chunks = append(chunks, core.RowChunk{
			Text:      text,
			Person:    person,
			Project:   project,
			DateLabel: date,
			RowIndex:  idx,
		})
	}
	return chunks
}
