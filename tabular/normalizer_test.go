package tabular

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const workforceCSV = "name,project,hours\nAnn,X,5\nBob,X,0\n,Y,3\n"

func TestNormalize_WorkforceScenario(t *testing.T) {
	table, chunks, err := Normalize("team.csv", []byte(workforceCSV))
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"name", "project", "hours"}, table.Columns)

	// Row 1: plain row, person and project lifted out of the sentence body.
	assert.Equal(t, "Ann", chunks[0].Person)
	assert.Equal(t, "X", chunks[0].Project)
	assert.Equal(t, "Ann (X): Hours: 5", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].RowIndex)

	// Row 2: a genuine zero is a fact, not a missing value.
	assert.Equal(t, "Bob (X): Hours: 0", chunks[1].Text)

	// Row 3: blank person defaults to the sentinel.
	assert.Equal(t, UnknownPerson, chunks[2].Person)
	assert.Equal(t, "Y", chunks[2].Project)
	assert.Equal(t, "Unknown (Y): Hours: 3", chunks[2].Text)
	assert.Equal(t, OngoingDate, chunks[2].DateLabel)
}

func TestNormalize_MissingNumericFilledNotSerialized(t *testing.T) {
	csv := "employee,hours\nAnn,5\nBob,\n"
	table, chunks, err := Normalize("hours.csv", []byte(csv))
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// The snapshot carries the filled zero...
	assert.Equal(t, "0", table.Rows[1][1])
	assert.True(t, table.Missing(1, 1))
	assert.False(t, table.Missing(0, 1))

	// ...but the sentence body omits it.
	assert.Equal(t, "Bob worked on General", chunks[1].Text)
	assert.Equal(t, "Ann (General): Hours: 5", chunks[0].Text)
}

func TestNormalize_Deterministic(t *testing.T) {
	data := []byte("name,project,start date,hours\nAnn,X,2024-03-01,5\nBob,Y,2024-03-02,7\n")

	t1, c1, err := Normalize("a.csv", data)
	require.NoError(t, err)
	t2, c2, err := Normalize("a.csv", data)
	require.NoError(t, err)

	assert.Equal(t, c1, c2, "chunk sequences must be identical across runs")

	var s1, s2 bytes.Buffer
	require.NoError(t, t1.WriteCSV(&s1))
	require.NoError(t, t2.WriteCSV(&s2))
	assert.Equal(t, s1.String(), s2.String(), "snapshots must be identical across runs")
}

func TestNormalize_DropsEmptyRowsAndColumns(t *testing.T) {
	csv := "name,empty,hours\nAnn,,5\n,,\nBob,,7\n"
	table, chunks, err := Normalize("sparse.csv", []byte(csv))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "hours"}, table.Columns)
	assert.Equal(t, 2, table.RowCount())
	require.Len(t, chunks, 2)
	assert.Equal(t, "Bob", chunks[1].Person)
	// Row indices follow the cleaned table, not the raw file.
	assert.Equal(t, 1, chunks[1].RowIndex)
}

func TestNormalize_CanonicalColumnNames(t *testing.T) {
	csv := "Employee Name, Project ,hours\nAnn,X,1\n"
	table, _, err := Normalize("cols.csv", []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, []string{"employee_name", "project", "hours"}, table.Columns)
}

func TestNormalize_DateColumn(t *testing.T) {
	csv := "name,start date\nAnn,2024-03-01\nBob,2024-03-15\n"
	table, chunks, err := Normalize("dates.csv", []byte(csv))
	require.NoError(t, err)

	assert.Equal(t, "March 1, 2024", table.Rows[0][1])
	assert.Equal(t, "March 1, 2024", chunks[0].DateLabel)
	assert.Equal(t, "March 15, 2024", chunks[1].DateLabel)
}

func TestNormalize_UnparseableDateKeptVerbatim(t *testing.T) {
	csv := "name,start date\nAnn,Q3 sprint\n"
	table, chunks, err := Normalize("dates.csv", []byte(csv))
	require.NoError(t, err)

	assert.Equal(t, "Q3 sprint", table.Rows[0][1])
	assert.Equal(t, "Q3 sprint", chunks[0].DateLabel)
}

func TestNormalize_MixedDateFormats(t *testing.T) {
	// No single layout parses the whole column; values are inferred one
	// by one.
	csv := "name,date\nAnn,2024-03-01\nBob,\"Jan 5, 2024\"\n"
	table, _, err := Normalize("dates.csv", []byte(csv))
	require.NoError(t, err)

	assert.Equal(t, "March 1, 2024", table.Rows[0][1])
	assert.Equal(t, "January 5, 2024", table.Rows[1][1])
}

func TestNormalize_Latin1Fallback(t *testing.T) {
	// "José" in latin-1: the byte 0xE9 is not valid UTF-8.
	data := []byte("name,hours\nJos\xe9,5\n")
	require.False(t, strings.Contains(string(data), "José"))

	_, chunks, err := Normalize("latin.csv", data)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "José", chunks[0].Person)
}

func TestNormalize_ParseFailure(t *testing.T) {
	// Garbage bytes declared as a workbook.
	_, _, err := Normalize("junk.xlsx", []byte{0x00, 0x01, 0x02, 0x03})
	assert.ErrorIs(t, err, ErrParse)
}

func TestNormalize_EmptyFile(t *testing.T) {
	_, _, err := Normalize("empty.csv", []byte(""))
	assert.ErrorIs(t, err, ErrParse)
}

func TestNormalize_HeaderOnlyYieldsNoChunks(t *testing.T) {
	_, chunks, err := Normalize("header.csv", []byte("name,project,hours\n"))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestNormalize_NoRoleColumns(t *testing.T) {
	csv := "widget,count\nbolt,12\n"
	_, chunks, err := Normalize("inventory.csv", []byte(csv))
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, UnknownPerson, chunks[0].Person)
	assert.Equal(t, GeneralProject, chunks[0].Project)
	assert.Equal(t, "Unknown (General): Widget: bolt; Count: 12", chunks[0].Text)
}
