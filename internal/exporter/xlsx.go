package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"bizinsights/internal/files"
	"bizinsights/pkg/contracts/domain"
)

// LeadsSheet is the worksheet name of Excel exports.
const LeadsSheet = "Leads"

// XLSXWriter writes lead lists as Excel workbooks
type XLSXWriter struct {
	manager *files.Manager
}

// NewXLSXWriter creates a new Excel writer writing files relative to baseDir.
func NewXLSXWriter(baseDir string) *XLSXWriter {
	return &XLSXWriter{manager: files.NewManager(baseDir)}
}

// ContentType returns the MIME type of the output.
func (w *XLSXWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension returns the file extension of the output.
func (w *XLSXWriter) Extension() string { return ".xlsx" }

// WriteLeads writes a single-sheet workbook with a bold, frozen header row.
func (w *XLSXWriter) WriteLeads(out io.Writer, leads []domain.LeadRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), LeadsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(domain.ExportColumns))
	for i, c := range domain.ExportColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(LeadsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, l := range leads {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{l.Name, l.Contact, l.Email, l.Phone, l.City, l.LeadScore, l.Website, l.Keywords}
		if err := f.SetSheetRow(LeadsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(domain.ExportColumns), 1)
	if err := f.SetCellStyle(LeadsSheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style headers: %w", err)
	}
	if err := f.SetPanes(LeadsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteLeadsFile writes the leads to an Excel file, replacing it atomically.
func (w *XLSXWriter) WriteLeadsFile(filePath string, leads []domain.LeadRow) error {
	slog.Info("Writing Excel file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(leads)))

	return w.manager.WriteAtomic(filePath, func(out io.Writer) error {
		return w.WriteLeads(out, leads)
	})
}
