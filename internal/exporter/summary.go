package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"retail-dashboard/internal/models"
)

// SummaryFilename is the download name of the KPI summary export.
const SummaryFilename = "summary.csv"

// KPIRecords renders the four KPI rows exactly as displayed, so the export
// round-trips to the same strings the dashboard shows.
func KPIRecords(k models.KPISummary) [][]string {
	return [][]string{
		{"Total Sales", FormatMoney(k.TotalSales)},
		{"Total Orders", FormatCount(k.TotalOrders)},
		{"Avg Order Value", FormatMoney(k.AvgOrderValue)},
		{"Total Profit", FormatMoney(k.TotalProfit)},
	}
}

// WriteSummaryCSV writes the Metric/Value summary CSV.
func WriteSummaryCSV(w io.Writer, k models.KPISummary) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Metric", "Value"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, record := range KPIRecords(k) {
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
