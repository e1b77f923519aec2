package exporter

import (
	"fmt"
	"strings"
	"time"

	"retail-dashboard/internal/models"
)

// ReportFilename is the download name of the plain-text report.
const ReportFilename = "Retail_Report.txt"

const reportTimestampLayout = "2006-01-02 15:04"

// TextReport renders the fixed-layout plain-text report: banner, generation
// timestamp, key metrics, numbered insights, end banner.
func TextReport(k models.KPISummary, insights []string, generatedAt time.Time) string {
	lines := []string{
		"==================================",
		"    RETAIL ANALYTICS REPORT",
		"==================================",
		fmt.Sprintf("Generated on: %s", generatedAt.Format(reportTimestampLayout)),
		"",
		"----- KEY METRICS -----",
		fmt.Sprintf("Total Sales      : %s", FormatMoney(k.TotalSales)),
		fmt.Sprintf("Total Orders     : %s", FormatCount(k.TotalOrders)),
		fmt.Sprintf("Avg Order Value  : %s", FormatMoney(k.AvgOrderValue)),
		fmt.Sprintf("Total Profit     : %s", FormatMoney(k.TotalProfit)),
		"",
		"----- INSIGHTS -----",
	}

	for i, insight := range insights {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, insight))
	}

	lines = append(lines, "", "----- END OF REPORT -----")

	return strings.Join(lines, "\n")
}
