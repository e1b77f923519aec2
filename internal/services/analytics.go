package services

import (
	"math"
	"slices"
	"strconv"
	"time"

	"retail-dashboard/internal/models"
)

// Resample buckets.
const (
	BucketDay   = "day"
	BucketMonth = "month"
)

// ApplyFilter narrows a dataset to the rows satisfying the filter state.
// Dimensions whose column is absent are skipped; when dates are filterable
// the bounds default to the observed min/max and rows without a parsed
// OrderDate fall out. Grouping dimensions drop rows with a null value, the
// way the upstream multi-select offers only non-null options.
func ApplyFilter(d *models.Dataset, f models.FilterState) []models.Row {
	rows := make([]models.Row, 0, len(d.Rows))

	var from, to time.Time
	dateActive := d.HasDates()
	if dateActive {
		min, max, _ := d.DateBounds()
		from, to = dayOf(min), dayOf(max)
		if f.From != nil {
			from = dayOf(*f.From)
		}
		if f.To != nil {
			to = dayOf(*f.To)
		}
	}

	for _, r := range d.Rows {
		if dateActive {
			if r.OrderDate == nil {
				continue
			}
			day := dayOf(*r.OrderDate)
			if day.Before(from) || day.After(to) {
				continue
			}
		}

		if d.Has(models.ColCategory) && !inSelection(r.Category, f.Categories) {
			continue
		}

		if d.Has(models.ColRegion) && !inSelection(r.Region, f.Regions) {
			continue
		}

		rows = append(rows, r)
	}

	return rows
}

// ComputeKPIs aggregates the four summary scalars over a filtered view.
// Missing columns contribute zero; the average is 0 when there are no
// orders.
func ComputeKPIs(d *models.Dataset, rows []models.Row) models.KPISummary {
	var k models.KPISummary

	if d.Has(models.ColSales) {
		for _, r := range rows {
			if r.Sales != nil {
				k.TotalSales += *r.Sales
			}
		}
	}

	if d.Has(models.ColOrderID) {
		seen := make(map[string]struct{})
		for _, r := range rows {
			if r.OrderID != "" {
				seen[r.OrderID] = struct{}{}
			}
		}
		k.TotalOrders = len(seen)
	} else {
		k.TotalOrders = len(rows)
	}

	if k.TotalOrders > 0 {
		k.AvgOrderValue = k.TotalSales / float64(k.TotalOrders)
	}

	if d.Has(models.ColProfit) {
		for _, r := range rows {
			if r.Profit != nil {
				k.TotalProfit += *r.Profit
			}
		}
	}

	return k
}

// GroupSales sums Sales per distinct value of a grouping column, in
// first-encountered row order. Rows with a null group value are dropped.
func GroupSales(rows []models.Row, column string) []models.GroupSales {
	totals := make(map[string]int) // key -> position in groups
	var groups []models.GroupSales

	for _, r := range rows {
		key := groupKey(r, column)
		if key == "" {
			continue
		}

		idx, ok := totals[key]
		if !ok {
			idx = len(groups)
			totals[key] = idx
			groups = append(groups, models.GroupSales{Key: key})
		}
		if r.Sales != nil {
			groups[idx].Sales += *r.Sales
		}
	}

	return groups
}

// TopSales returns the n largest groups by summed Sales, descending. The
// sort is stable so ties keep first-encountered order.
func TopSales(groups []models.GroupSales, n int) []models.GroupSales {
	sorted := make([]models.GroupSales, len(groups))
	copy(sorted, groups)

	slices.SortStableFunc(sorted, func(a, b models.GroupSales) int {
		if a.Sales > b.Sales {
			return -1
		}
		if a.Sales < b.Sales {
			return 1
		}
		return 0
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// MaxSales returns the group with the largest summed Sales; ties keep the
// first-encountered group.
func MaxSales(groups []models.GroupSales) (models.GroupSales, bool) {
	if len(groups) == 0 {
		return models.GroupSales{}, false
	}
	best := groups[0]
	for _, g := range groups[1:] {
		if g.Sales > best.Sales {
			best = g
		}
	}
	return best, true
}

// ResampleSales sums Sales into continuous calendar buckets (day or month)
// between the first and last dated rows. Buckets with no rows carry zero,
// so a skipped month still appears in the series.
func ResampleSales(rows []models.Row, bucket string) []models.TimePoint {
	layout := "2006-01-02"
	if bucket == BucketMonth {
		layout = "2006-01"
	}

	sums := make(map[string]float64)
	var min, max time.Time
	seen := false

	for _, r := range rows {
		if r.OrderDate == nil {
			continue
		}
		day := dayOf(*r.OrderDate)
		if !seen {
			min, max, seen = day, day, true
		} else {
			if day.Before(min) {
				min = day
			}
			if day.After(max) {
				max = day
			}
		}
		if r.Sales != nil {
			sums[day.Format(layout)] += *r.Sales
		}
	}

	if !seen {
		return nil
	}

	var series []models.TimePoint
	switch bucket {
	case BucketMonth:
		cur := time.Date(min.Year(), min.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(max.Year(), max.Month(), 1, 0, 0, 0, 0, time.UTC)
		for !cur.After(end) {
			key := cur.Format(layout)
			series = append(series, models.TimePoint{Period: key, Sales: sums[key]})
			cur = cur.AddDate(0, 1, 0)
		}
	default:
		for cur := min; !cur.After(max); cur = cur.AddDate(0, 0, 1) {
			key := cur.Format(layout)
			series = append(series, models.TimePoint{Period: key, Sales: sums[key]})
		}
	}

	return series
}

// TrendDirection compares the last two monthly buckets. ok is false with
// fewer than two periods.
func TrendDirection(monthly []models.TimePoint) (increasing, ok bool) {
	if len(monthly) < 2 {
		return false, false
	}
	last := monthly[len(monthly)-1].Sales
	prev := monthly[len(monthly)-2].Sales
	return last > prev, true
}

// CorrelationColumns lists the columns eligible for the correlation matrix:
// the recognized numeric columns plus any passthrough column whose non-empty
// cells all parse as numbers.
func CorrelationColumns(d *models.Dataset) []string {
	cols := d.Numeric()
	for _, c := range d.Columns {
		if models.Recognized(c) {
			continue
		}
		if isNumericExtra(d.Rows, c) {
			cols = append(cols, c)
		}
	}
	return cols
}

func isNumericExtra(rows []models.Row, column string) bool {
	seen := false
	for _, r := range rows {
		raw := r.Extra[column]
		if raw == "" {
			continue
		}
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}

// Correlate builds a Pearson correlation matrix over the columns reported
// by CorrelationColumns. Cells are nil where fewer than two paired
// observations exist or a series has zero variance.
func Correlate(d *models.Dataset, rows []models.Row) models.Correlation {
	cols := CorrelationColumns(d)
	values := make([][]*float64, len(cols))

	for i := range cols {
		values[i] = make([]*float64, len(cols))
		for j := range cols {
			values[i][j] = pearson(rows, cols[i], cols[j])
		}
	}

	return models.Correlation{Columns: cols, Values: values}
}

func pearson(rows []models.Row, colX, colY string) *float64 {
	var n float64
	var sumX, sumY, sumXY, sumXX, sumYY float64

	for _, r := range rows {
		x := numericValue(r, colX)
		y := numericValue(r, colY)
		if x == nil || y == nil {
			continue
		}
		n++
		sumX += *x
		sumY += *y
		sumXY += *x * *y
		sumXX += *x * *x
		sumYY += *y * *y
	}

	if n < 2 {
		return nil
	}

	varX := n*sumXX - sumX*sumX
	varY := n*sumYY - sumY*sumY
	if varX <= 0 || varY <= 0 {
		return nil
	}

	r := (n*sumXY - sumX*sumY) / math.Sqrt(varX*varY)
	return &r
}

// Options lists the filter choices for the current view, cascading the way
// the sidebar controls narrow each other: categories come from the
// date-filtered view, regions from the date-and-category-filtered view.
// Values are distinct, non-null, in first-encountered order; the date
// bounds cover the whole dataset.
func Options(d *models.Dataset, f models.FilterState) models.FilterOptions {
	var opts models.FilterOptions

	dated := ApplyFilter(d, models.FilterState{From: f.From, To: f.To})

	if d.Has(models.ColCategory) {
		opts.Categories = distinct(dated, models.ColCategory)
	}
	if d.Has(models.ColRegion) {
		narrowed := ApplyFilter(d, models.FilterState{From: f.From, To: f.To, Categories: f.Categories})
		opts.Regions = distinct(narrowed, models.ColRegion)
	}

	if min, max, ok := d.DateBounds(); ok {
		opts.MinDate = min.Format("2006-01-02")
		opts.MaxDate = max.Format("2006-01-02")
	}

	return opts
}

// RowRecords renders filtered rows back into display records aligned with
// the original column order, capped at limit (0 means all rows).
func RowRecords(d *models.Dataset, rows []models.Row, limit int) ([]string, [][]string) {
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	records := make([][]string, len(rows))
	for i, r := range rows {
		record := make([]string, len(d.Columns))
		for j, c := range d.Columns {
			record[j] = displayValue(r, c)
		}
		records[i] = record
	}

	return d.Columns, records
}

func displayValue(r models.Row, column string) string {
	switch column {
	case models.ColOrderDate:
		if r.OrderDate == nil {
			return ""
		}
		return r.OrderDate.Format("2006-01-02")
	case models.ColSales, models.ColQuantity, models.ColProfit, models.ColUnitPrice:
		v := numericValue(r, column)
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'g', -1, 64)
	case models.ColCategory:
		return r.Category
	case models.ColRegion:
		return r.Region
	case models.ColProduct:
		return r.Product
	case models.ColOrderID:
		return r.OrderID
	default:
		return r.Extra[column]
	}
}

func distinct(rows []models.Row, column string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		key := groupKey(r, column)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func groupKey(r models.Row, column string) string {
	switch column {
	case models.ColCategory:
		return r.Category
	case models.ColRegion:
		return r.Region
	case models.ColProduct:
		return r.Product
	case models.ColOrderID:
		return r.OrderID
	default:
		return r.Extra[column]
	}
}

func numericValue(r models.Row, column string) *float64 {
	switch column {
	case models.ColSales:
		return r.Sales
	case models.ColQuantity:
		return r.Quantity
	case models.ColProfit:
		return r.Profit
	case models.ColUnitPrice:
		return r.UnitPrice
	default:
		raw := r.Extra[column]
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		return &v
	}
}

func inSelection(value string, selection []string) bool {
	if value == "" {
		return false
	}
	if len(selection) == 0 {
		return true
	}
	return slices.Contains(selection, value)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
