package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"retail-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

// dateFormats are tried in order when coercing OrderDate cells.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"2006.01.02",
}

// ParseCSV ingests an uploaded CSV of arbitrary schema into a normalized
// Dataset. Recognized columns are coerced (dates and numerics null on
// failure); everything else is carried through as raw strings. Coercion
// failures never fail the upload; the Dataset's DateStatus reports how the
// OrderDate pass went.
func ParseCSV(ctx context.Context, r io.Reader, name string) (*models.Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, c := range header {
		columns[i] = strings.TrimSpace(c)
	}
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; !dup {
			index[c] = i
		}
	}

	var records [][]string
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		records = append(records, record)
	}

	n := newNormalizer(columns, index)
	rows := make([]models.Row, len(records))
	datesParsed := 0

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}

		var g errgroup.Group
		g.SetLimit(maxWorkers)

		for i := start; i < end; i++ {
			g.Go(func() error {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				rows[i] = n.normalize(records[i])
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	for i := range rows {
		if rows[i].OrderDate != nil {
			datesParsed++
		}
	}

	status := models.DateStatusMissing
	if _, ok := index[models.ColOrderDate]; ok {
		if datesParsed > 0 {
			status = models.DateStatusOK
		} else {
			status = models.DateStatusUnparsed
		}
	}

	return models.NewDataset(uuid.NewString(), name, columns, rows, status), nil
}

type normalizer struct {
	index     map[string]int
	extraCols []string
}

func newNormalizer(columns []string, index map[string]int) *normalizer {
	var extra []string
	for _, c := range columns {
		if !models.Recognized(c) {
			extra = append(extra, c)
		}
	}

	return &normalizer{
		index:     index,
		extraCols: extra,
	}
}

// cell returns the trimmed value for a column, or "" when the column is
// absent or the record is short.
func (n *normalizer) cell(record []string, column string) string {
	idx, ok := n.index[column]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func (n *normalizer) normalize(record []string) models.Row {
	row := models.Row{
		Category: n.cell(record, models.ColCategory),
		Region:   n.cell(record, models.ColRegion),
		Product:  n.cell(record, models.ColProduct),
		OrderID:  n.cell(record, models.ColOrderID),
	}

	row.OrderDate = parseDate(n.cell(record, models.ColOrderDate))

	row.Sales = n.numeric(record, models.ColSales)
	row.Quantity = n.numeric(record, models.ColQuantity)
	row.Profit = n.numeric(record, models.ColProfit)
	row.UnitPrice = n.numeric(record, models.ColUnitPrice)

	if len(n.extraCols) > 0 {
		row.Extra = make(map[string]string, len(n.extraCols))
		for _, c := range n.extraCols {
			row.Extra[c] = n.cell(record, c)
		}
	}

	return row
}

func (n *normalizer) numeric(record []string, column string) *float64 {
	raw := n.cell(record, column)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, f := range dateFormats {
		if t, err := time.Parse(f, raw); err == nil {
			return &t
		}
	}
	return nil
}
