package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"bizinsights/internal/files"
	"bizinsights/pkg/contracts/domain"
)

// LeadWriter renders a lead list in one download format.
type LeadWriter interface {
	WriteLeads(w io.Writer, leads []domain.LeadRow) error
	ContentType() string
	Extension() string
}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	manager   *files.Manager
	bomPrefix bool
}

// NewCSVWriter creates a new CSV writer instance. Files are written relative
// to baseDir. With bomPrefix set the output starts with a UTF-8 BOM so Excel
// detects the encoding.
func NewCSVWriter(baseDir string, bomPrefix bool) *CSVWriter {
	return &CSVWriter{manager: files.NewManager(baseDir), bomPrefix: bomPrefix}
}

// ContentType returns the MIME type of the output.
func (w *CSVWriter) ContentType() string { return "text/csv; charset=utf-8" }

// Extension returns the file extension of the output.
func (w *CSVWriter) Extension() string { return ".csv" }

// WriteLeads writes the header and one row per lead.
func (w *CSVWriter) WriteLeads(out io.Writer, leads []domain.LeadRow) error {
	if w.bomPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(domain.ExportColumns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, lead := range leads {
		if err := writer.Write(leadRecord(lead)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteLeadsFile writes the leads to a CSV file, replacing it atomically.
func (w *CSVWriter) WriteLeadsFile(filePath string, leads []domain.LeadRow) error {
	slog.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(leads)))

	return w.manager.WriteAtomic(filePath, func(out io.Writer) error {
		return w.WriteLeads(out, leads)
	})
}
