package services

import (
	"fmt"

	"retail-dashboard/internal/exporter"
	"retail-dashboard/internal/models"
)

// BuildInsights derives the ordered insight list for a filtered view:
// top region, top category, then trend direction. Each line is emitted only
// when its columns exist and its group is non-empty; the trend needs at
// least two monthly buckets.
func BuildInsights(d *models.Dataset, rows []models.Row) []string {
	var insights []string

	if d.Has(models.ColRegion) && d.Has(models.ColSales) {
		if top, ok := MaxSales(GroupSales(rows, models.ColRegion)); ok {
			insights = append(insights, fmt.Sprintf("Top region: %s with %s sales", top.Key, exporter.FormatMoney(top.Sales)))
		}
	}

	if d.Has(models.ColCategory) && d.Has(models.ColSales) {
		if top, ok := MaxSales(GroupSales(rows, models.ColCategory)); ok {
			insights = append(insights, fmt.Sprintf("Top category: %s", top.Key))
		}
	}

	if d.Has(models.ColOrderDate) && d.Has(models.ColSales) {
		monthly := ResampleSales(rows, BucketMonth)
		if increasing, ok := TrendDirection(monthly); ok {
			if increasing {
				insights = append(insights, "Sales are increasing recently")
			} else {
				insights = append(insights, "Sales are declining recently")
			}
		}
	}

	return insights
}
