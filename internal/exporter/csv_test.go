package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bizinsights/pkg/contracts/domain"
)

func sampleLeads() []domain.LeadRow {
	return []domain.LeadRow{
		{Name: "Acme", Contact: "Jo", Email: "a@a.com", Phone: "1234567", City: "Pune", LeadScore: 72, Website: domain.NoWebsite, Keywords: "tax,audit"},
		{Name: "Beta, Ltd", Email: domain.NoEmail, Phone: "123", City: "Delhi", LeadScore: 0, Website: domain.NoWebsite},
	}
}

func TestCSVWriter_WriteLeads(t *testing.T) {
	tests := []struct {
		name string
		bom  bool
	}{
		{name: "plain", bom: false},
		{name: "with BOM", bom: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewCSVWriter("", tt.bom).WriteLeads(&buf, sampleLeads()))

			data := buf.Bytes()
			assert.Equal(t, tt.bom, bytes.HasPrefix(data, utf8BOM))
			data = bytes.TrimPrefix(data, utf8BOM)

			records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
			require.NoError(t, err)
			require.Len(t, records, 3)
			assert.Equal(t, []string{"co_name", "contact", "email", "phone", "city", "lead_score", "website", "keywords"}, records[0])
			assert.Equal(t, []string{"Acme", "Jo", "a@a.com", "1234567", "Pune", "72", domain.NoWebsite, "tax,audit"}, records[1])
			assert.Equal(t, "Beta, Ltd", records[2][0], "commas are quoted")
		})
	}
}

func TestCSVWriter_EmptyLeads(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVWriter("", false).WriteLeads(&buf, nil))
	assert.Equal(t, "co_name,contact,email,phone,city,lead_score,website,keywords\n", buf.String())
}

func TestCSVWriter_WriteLeadsFile(t *testing.T) {
	tmpDir := t.TempDir()
	w := NewCSVWriter(tmpDir, true)

	require.NoError(t, w.WriteLeadsFile("exports/leads.csv", sampleLeads()))

	data, err := os.ReadFile(filepath.Join(tmpDir, "exports", "leads.csv"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
	assert.Contains(t, string(data), "Acme,Jo,a@a.com")
}

func TestXLSXWriter_WriteLeads(t *testing.T) {
	var buf bytes.Buffer
	w := NewXLSXWriter("")
	require.NoError(t, w.WriteLeads(&buf, sampleLeads()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{LeadsSheet}, f.GetSheetList())
	rows, err := f.GetRows(LeadsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.ExportColumns, rows[0])
	assert.Equal(t, "Acme", rows[1][0])
	assert.Equal(t, "72", rows[1][5])

	score, err := f.GetCellValue(LeadsSheet, "F3")
	require.NoError(t, err)
	assert.Equal(t, "0", score)
}

func TestXLSXWriter_WriteLeadsFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, NewXLSXWriter(tmpDir).WriteLeadsFile("leads.xlsx", sampleLeads()))

	f, err := excelize.OpenFile(filepath.Join(tmpDir, "leads.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(LeadsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestLeadWriters(t *testing.T) {
	writers := []LeadWriter{NewCSVWriter("", false), NewXLSXWriter("")}
	exts := []string{".csv", ".xlsx"}
	for i, w := range writers {
		assert.Equal(t, exts[i], w.Extension())
		assert.NotEmpty(t, w.ContentType())
	}
}
