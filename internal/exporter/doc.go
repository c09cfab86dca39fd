// Package exporter writes lead lists as CSV and Excel downloads.
//
// Both writers emit the columns co_name, contact, email, phone, city,
// lead_score, website and keywords, in that order. CSVWriter can prefix a
// UTF-8 BOM for Excel compatibility; XLSXWriter produces a single "Leads"
// sheet through excelize.
//
// Example usage:
//
//	w := exporter.NewCSVWriter("exports", true)
//	err := w.WriteLeads(os.Stdout, leads)
//	err = w.WriteLeadsFile("leads.csv", leads)
package exporter
