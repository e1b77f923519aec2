package models

import "time"

// Recognized optional columns. Matching is exact against the CSV header
// after whitespace trimming; anything else passes through untouched.
const (
	ColOrderDate = "OrderDate"
	ColSales     = "Sales"
	ColQuantity  = "Quantity"
	ColProfit    = "Profit"
	ColUnitPrice = "UnitPrice"
	ColCategory  = "Category"
	ColRegion    = "Region"
	ColProduct   = "Product"
	ColOrderID   = "OrderID"
)

// NumericColumns are coerced to float64 by the normalizer when present.
var NumericColumns = []string{ColSales, ColQuantity, ColProfit, ColUnitPrice}

var recognized = map[string]bool{
	ColOrderDate: true,
	ColSales:     true,
	ColQuantity:  true,
	ColProfit:    true,
	ColUnitPrice: true,
	ColCategory:  true,
	ColRegion:    true,
	ColProduct:   true,
	ColOrderID:   true,
}

// Recognized reports whether a column name maps to a typed Row field.
// Anything else is carried through in Extra.
func Recognized(column string) bool {
	return recognized[column]
}

// DateStatus reports how OrderDate normalization went for an upload.
type DateStatus string

const (
	DateStatusOK       DateStatus = "ok"            // column present, at least one row parsed
	DateStatusUnparsed DateStatus = "date_unparsed" // column present, zero rows parsed
	DateStatusMissing  DateStatus = "date_missing"  // column absent
)

// Row is one normalized record. Pointer fields are nil when the column is
// absent, the cell was empty, or coercion failed.
type Row struct {
	OrderDate *time.Time
	Sales     *float64
	Quantity  *float64
	Profit    *float64
	UnitPrice *float64
	Category  string
	Region    string
	Product   string
	OrderID   string
	Extra     map[string]string
}

// Dataset is an immutable, normalized upload.
type Dataset struct {
	ID         string
	Name       string
	Columns    []string
	Rows       []Row
	DateStatus DateStatus
	UploadedAt time.Time

	present map[string]bool
}

func NewDataset(id, name string, columns []string, rows []Row, status DateStatus) *Dataset {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	return &Dataset{
		ID:         id,
		Name:       name,
		Columns:    columns,
		Rows:       rows,
		DateStatus: status,
		UploadedAt: time.Now().UTC(),
		present:    present,
	}
}

// Has reports whether the upload carried the named column.
func (d *Dataset) Has(column string) bool {
	return d.present[column]
}

// HasDates reports whether any row carries a parsed OrderDate.
func (d *Dataset) HasDates() bool {
	return d.DateStatus == DateStatusOK
}

// Numeric returns the recognized numeric columns present in the upload, in
// canonical order.
func (d *Dataset) Numeric() []string {
	var cols []string
	for _, c := range NumericColumns {
		if d.present[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

// DateBounds returns the min and max parsed OrderDate across all rows.
// ok is false when no row parsed.
func (d *Dataset) DateBounds() (min, max time.Time, ok bool) {
	for _, r := range d.Rows {
		if r.OrderDate == nil {
			continue
		}
		if !ok {
			min, max, ok = *r.OrderDate, *r.OrderDate, true
			continue
		}
		if r.OrderDate.Before(min) {
			min = *r.OrderDate
		}
		if r.OrderDate.After(max) {
			max = *r.OrderDate
		}
	}
	return min, max, ok
}

// FilterState narrows a dataset. Nil date bounds and empty sets mean "no
// restriction" for that dimension; dimensions whose column is absent are
// skipped entirely.
type FilterState struct {
	From       *time.Time
	To         *time.Time
	Categories []string
	Regions    []string
}

// KPISummary holds the four scalar aggregates of a filtered view.
type KPISummary struct {
	TotalSales    float64 `json:"total_sales"`
	TotalOrders   int     `json:"total_orders"`
	AvgOrderValue float64 `json:"avg_order_value"`
	TotalProfit   float64 `json:"total_profit"`
}

// GroupSales is a summed-Sales bucket keyed by a grouping column value.
type GroupSales struct {
	Key   string  `json:"key"`
	Sales float64 `json:"sales"`
}

// TimePoint is one calendar bucket of the resampled Sales series.
type TimePoint struct {
	Period string  `json:"period"`
	Sales  float64 `json:"sales"`
}

// Correlation is a Pearson correlation matrix over the numeric columns.
// Cells are nil where the coefficient is undefined (fewer than two paired
// observations, or zero variance).
type Correlation struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

// FilterOptions describes the filter controls to offer for the current
// date-filtered view.
type FilterOptions struct {
	Categories []string `json:"categories"`
	Regions    []string `json:"regions"`
	MinDate    string   `json:"min_date,omitempty"`
	MaxDate    string   `json:"max_date,omitempty"`
}
