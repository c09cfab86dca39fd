package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"bizinsights/pkg/contracts/domain"
)

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("input has no header row")

// Table is the raw company table as read from disk, before normalization.
type Table struct {
	// Columns is the source header in file order.
	Columns []string
	// Keys is the row key of each header position: the schema column name, or
	// the header itself for extras. A repeated header is renamed name.1,
	// name.2 and so on; the first occurrence keeps the schema slot.
	Keys []string
	// Present marks which schema columns exist in the source header.
	Present map[string]bool
	Rows    []domain.RawRow
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Cell values read as missing, matching the usual spreadsheet NA markers.
var missingMarkers = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-NaN":     {},
	"-nan":     {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

func isMissing(cell string) bool {
	_, ok := missingMarkers[strings.TrimSpace(cell)]
	return ok
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseFile reads a company table, choosing the reader by file extension.
// .xlsx and .xlsm files go through excelize, everything else is read as CSV.
func ParseFile(filePath string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx", ".xlsm":
		return ParseXLSX(filePath)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	table, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(filePath), err)
	}
	return table, nil
}

// ParseCSV reads a headed CSV company table.
// Columns are matched to the schema by header name; unknown columns are kept
// as extras and short rows are padded with missing cells.
func ParseCSV(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}
	return buildTable(records)
}

// ParseXLSX reads the first worksheet of an Excel workbook as a company table.
func ParseXLSX(filePath string) (*Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", filepath.Base(filePath))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return buildTable(rows)
}

func buildTable(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrNoHeader
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	// Map each header position to a schema column or an extra name.
	schema := make(map[string]bool, len(domain.SchemaColumns))
	for _, c := range domain.SchemaColumns {
		schema[c] = true
	}
	keys := make([]string, len(header))
	present := make(map[string]bool)
	used := make(map[string]bool, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		key := strings.ToLower(h)
		if schema[key] && !present[key] {
			present[key] = true
		} else {
			key = uniqueKey(h, used, schema)
		}
		keys[i] = key
		used[key] = true
	}

	table := &Table{
		Columns: header,
		Keys:    keys,
		Present: present,
		Rows:    make([]domain.RawRow, 0, len(records)-1),
	}

	for _, rec := range records[1:] {
		if emptyLine(rec) {
			continue
		}
		var row domain.RawRow
		for i, key := range keys {
			if i >= len(rec) || isMissing(rec[i]) {
				continue
			}
			value := rec[i]
			switch key {
			case domain.ColumnName:
				row.Name = &value
			case domain.ColumnContact:
				row.Contact = &value
			case domain.ColumnEmail:
				row.Email = &value
			case domain.ColumnPhone:
				row.Phone = &value
			case domain.ColumnWebsite:
				row.Website = &value
			case domain.ColumnCity:
				row.City = &value
			case domain.ColumnKeywords:
				row.Keywords = &value
			default:
				if key == "" {
					continue
				}
				if row.Extra == nil {
					row.Extra = make(map[string]string)
				}
				row.Extra[key] = value
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// uniqueKey names an extra column. Headers that collide with an earlier
// column or with a schema name get the first free numeric suffix.
func uniqueKey(h string, used, schema map[string]bool) string {
	if !used[h] && !schema[h] {
		return h
	}
	for n := 1; ; n++ {
		candidate := h + "." + strconv.Itoa(n)
		if !used[candidate] && !schema[candidate] {
			return candidate
		}
	}
}

// emptyLine reports whether a record carries no cells at all: an empty
// worksheet row or a whitespace-only text line. Rows of bare separators
// (",,,") are kept as all-missing records.
func emptyLine(rec []string) bool {
	return len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "")
}
