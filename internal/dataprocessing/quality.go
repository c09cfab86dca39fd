package dataprocessing

import (
	"sort"
	"strings"

	"bizinsights/pkg/contracts/domain"
)

// Column types reported by the quality table.
const (
	TypeString     = "string"
	TypeBool       = "bool"
	TypeInt        = "int"
	TypeStringList = "[]string"
)

type dupKey struct {
	name string
	city string
}

// DuplicateFlags marks every record whose (name, city) pair occurs more than once.
// The marking is symmetric: all members of a duplicated group are flagged.
func DuplicateFlags(records []domain.Company) []bool {
	counts := make(map[dupKey]int, len(records))
	for _, c := range records {
		counts[dupKey{c.Name, c.City}]++
	}
	flags := make([]bool, len(records))
	for i, c := range records {
		flags[i] = counts[dupKey{c.Name, c.City}] > 1
	}
	return flags
}

// Duplicates lists every member of a duplicated (name, city) group sorted by name then city.
func Duplicates(records []domain.Company) []domain.DuplicateRow {
	flags := DuplicateFlags(records)
	out := make([]domain.DuplicateRow, 0)
	for i, c := range records {
		if !flags[i] {
			continue
		}
		out = append(out, domain.DuplicateRow{
			Row:   c.Row,
			Name:  c.Name,
			City:  c.City,
			Email: c.Email,
			Phone: c.Phone,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].City < out[j].City
	})
	return out
}

// QualityReport describes completeness of every column of the unfiltered table,
// derived columns included, sorted by missing percentage descending. Missing
// counts for schema columns are taken from the raw table, so substituted
// sentinels still count as missing.
func QualityReport(table *Table, records []domain.Company) domain.QualityReport {
	rows := len(records)
	report := domain.QualityReport{
		Rows:       rows,
		Columns:    make([]domain.ColumnQuality, 0),
		Duplicates: Duplicates(records),
	}

	var raw []domain.RawRow
	var columns []string
	if table != nil {
		raw = table.Rows
		columns = append(columns, table.Keys...)
	}
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		seen[col] = true
	}
	for _, col := range domain.SchemaColumns {
		if !seen[col] {
			columns = append(columns, col)
			seen[col] = true
		}
	}

	for _, col := range columns {
		if col == "" {
			continue
		}
		missing := 0
		distinct := make(map[string]struct{})
		for _, r := range raw {
			v, ok := r.Field(col)
			if !ok {
				missing++
				continue
			}
			distinct[v] = struct{}{}
		}
		// Records without a backing raw row count as missing.
		if len(raw) < rows {
			missing += rows - len(raw)
		}
		report.Columns = append(report.Columns, domain.ColumnQuality{
			Column:         col,
			MissingPercent: percent(missing, rows),
			Unique:         len(distinct),
			Type:           TypeString,
		})
	}

	report.Columns = append(report.Columns, derivedColumns(records)...)

	sort.SliceStable(report.Columns, func(i, j int) bool {
		return report.Columns[i].MissingPercent > report.Columns[j].MissingPercent
	})
	return report
}

func derivedColumns(records []domain.Company) []domain.ColumnQuality {
	tokens := make(map[string]struct{})
	email := make(map[bool]struct{})
	website := make(map[bool]struct{})
	phone := make(map[bool]struct{})
	score := make(map[int]struct{})
	for _, c := range records {
		tokens[strings.Join(c.KeywordsNorm, ",")] = struct{}{}
		email[c.HasEmail] = struct{}{}
		website[c.HasWebsite] = struct{}{}
		phone[c.HasPhone] = struct{}{}
		score[c.LeadScore] = struct{}{}
	}

	return []domain.ColumnQuality{
		{Column: "keywords_norm", Unique: len(tokens), Type: TypeStringList},
		{Column: "has_email", Unique: len(email), Type: TypeBool},
		{Column: "has_website", Unique: len(website), Type: TypeBool},
		{Column: "has_phone", Unique: len(phone), Type: TypeBool},
		{Column: "lead_score", Unique: len(score), Type: TypeInt},
	}
}
