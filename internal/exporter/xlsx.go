package exporter

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"retail-dashboard/internal/models"
)

// WorkbookFilename is the download name of the XLSX export.
const WorkbookFilename = "Retail_Report.xlsx"

// WriteWorkbook writes an XLSX report with a Summary sheet (the KPI rows,
// formatted as displayed) and an Insights sheet.
func WriteWorkbook(w io.Writer, k models.KPISummary, insights []string, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetCellValue("Summary", "A1", "Generated on"); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if err := f.SetCellValue("Summary", "B1", generatedAt.Format(reportTimestampLayout)); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if err := f.SetCellValue("Summary", "A3", "Metric"); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if err := f.SetCellValue("Summary", "B3", "Value"); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	for i, record := range KPIRecords(k) {
		row := 4 + i
		if err := f.SetCellValue("Summary", fmt.Sprintf("A%d", row), record[0]); err != nil {
			return fmt.Errorf("write summary row %d: %w", i, err)
		}
		if err := f.SetCellValue("Summary", fmt.Sprintf("B%d", row), record[1]); err != nil {
			return fmt.Errorf("write summary row %d: %w", i, err)
		}
	}

	if _, err := f.NewSheet("Insights"); err != nil {
		return fmt.Errorf("create insights sheet: %w", err)
	}
	if err := f.SetCellValue("Insights", "A1", "Insight"); err != nil {
		return fmt.Errorf("write insights: %w", err)
	}
	for i, insight := range insights {
		cell := fmt.Sprintf("A%d", 2+i)
		if err := f.SetCellValue("Insights", cell, insight); err != nil {
			return fmt.Errorf("write insight %d: %w", i, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
