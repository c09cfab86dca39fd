package dataprocessing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bizinsights/pkg/contracts/domain"
)

const sampleCSV = `co_name,contact,email,phone,website,city,keywords
Acme,Jo,a@a.com,1234567,,Pune,"tax,audit"
Acme,Jo,a@a.com,1234567,,Pune,"tax,audit"
Beta,,,123,,Delhi,
`

func TestParseCSV(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"co_name", "contact", "email", "phone", "website", "city", "keywords"}, table.Columns)
	require.Equal(t, 3, table.Len())

	acme := table.Rows[0]
	require.NotNil(t, acme.Name)
	assert.Equal(t, "Acme", *acme.Name)
	assert.Nil(t, acme.Website, "empty cell is missing")
	require.NotNil(t, acme.Keywords)
	assert.Equal(t, "tax,audit", *acme.Keywords)

	beta := table.Rows[2]
	assert.Nil(t, beta.Contact)
	assert.Nil(t, beta.Email)
	assert.Nil(t, beta.Keywords)
}

func TestParseCSV_MissingColumnsAndExtras(t *testing.T) {
	input := "\xEF\xBB\xBF Name , City,Revenue\nAcme,Pune,100\nBeta,NA,\n"

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.False(t, table.Present[domain.ColumnEmail])
	assert.True(t, table.Present[domain.ColumnCity])
	assert.Equal(t, []string{"Name", "City", "Revenue"}, table.Columns)
	assert.Equal(t, []string{"Name", "city", "Revenue"}, table.Keys)

	require.Len(t, table.Rows, 2)
	assert.Nil(t, table.Rows[0].Name, "Name is not the co_name column")
	assert.Equal(t, "Acme", table.Rows[0].Extra["Name"])
	assert.Equal(t, "100", table.Rows[0].Extra["Revenue"])
	assert.Nil(t, table.Rows[1].City, "NA marker reads as missing")
	_, ok := table.Rows[1].Extra["Revenue"]
	assert.False(t, ok)
}

func TestParseCSV_EmptyInput(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestParseCSV_SeparatorRowsAndShortRows(t *testing.T) {
	input := "co_name,city,keywords\nAcme\n,,\n\n   \nBeta,Delhi,seo\n"

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, table.Rows, 3, "empty lines are skipped, separator rows are kept")

	assert.Equal(t, "Acme", *table.Rows[0].Name)
	assert.Nil(t, table.Rows[0].City)
	assert.Equal(t, domain.RawRow{}, table.Rows[1])
	assert.Equal(t, "Delhi", *table.Rows[2].City)

	records := Normalize(table)
	require.Len(t, records, 3)
	assert.Equal(t, "", records[1].Name)
	assert.Equal(t, 0, records[1].LeadScore)
}

func TestParseCSV_RepeatedHeaders(t *testing.T) {
	input := "city,co_name,city,city.1,notes,notes\nDelhi,Acme,Mumbai,x,a,b\n"

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "co_name", "city.1", "city.1.1", "notes", "notes.1"}, table.Keys)

	require.Len(t, table.Rows, 1)
	row := table.Rows[0]
	assert.Equal(t, "Delhi", *row.City, "first occurrence keeps the schema column")
	assert.Equal(t, "Acme", *row.Name)
	assert.Equal(t, map[string]string{
		"city.1":   "Mumbai",
		"city.1.1": "x",
		"notes":    "a",
		"notes.1":  "b",
	}, row.Extra)
}

func TestParseFile_XLSX(t *testing.T) {
	tmpDir := t.TempDir()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"co_name", "email", "phone", "city", "keywords"},
		{"Acme", "a@a.com", "1234567", "Pune", "tax, audit"},
		{"Beta", "", "", "Delhi", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(tmpDir, "companies.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := ParseFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "a@a.com", *table.Rows[0].Email)
	assert.Nil(t, table.Rows[1].Email)
	assert.False(t, table.Present[domain.ColumnWebsite])
}

func TestParseFile_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	table, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
