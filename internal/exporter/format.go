package exporter

import (
	"strconv"

	"bizinsights/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// leadRecord flattens a lead in ExportColumns order
func leadRecord(l domain.LeadRow) []string {
	return []string{
		l.Name,
		l.Contact,
		l.Email,
		l.Phone,
		l.City,
		formatInt(l.LeadScore),
		l.Website,
		l.Keywords,
	}
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}
