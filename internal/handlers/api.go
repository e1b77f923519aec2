package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/exporter"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/services"
)

const (
	defaultRowLimit = 50
	maxRowLimit     = 1000
	topProductCount = 10
	cacheControl    = "no-store"
)

type APIHandlers struct {
	store    *services.Store
	logger   *slog.Logger
	validate *validator.Validate
}

func NewAPIHandlers(store *services.Store, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		store:    store,
		logger:   logger,
		validate: validator.New(),
	}
}

// filterQuery is the raw filter state carried on every read endpoint.
type filterQuery struct {
	From  string `validate:"omitempty,datetime=2006-01-02"`
	To    string `validate:"omitempty,datetime=2006-01-02"`
	Limit string `validate:"omitempty,number"`
}

func (h *APIHandlers) parseFilter(r *http.Request) (models.FilterState, error) {
	f, err := parseFilterState(h.validate, r)
	if err != nil {
		return models.FilterState{}, errors.ValidationWrap(err, "Invalid filter parameters")
	}
	return f, nil
}

// view resolves the active dataset and its filtered rows for a request.
func (h *APIHandlers) view(r *http.Request) (*models.Dataset, []models.Row, error) {
	ds, ok := h.store.Active()
	if !ok {
		return nil, nil, errors.NoDataset()
	}

	f, err := h.parseFilter(r)
	if err != nil {
		return nil, nil, err
	}

	return ds, services.ApplyFilter(ds, f), nil
}

func (h *APIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

type uploadResponse struct {
	UploadID   string   `json:"upload_id"`
	Name       string   `json:"name"`
	Rows       int      `json:"rows"`
	Columns    []string `json:"columns"`
	DateStatus string   `json:"date_status"`
	Warnings   []string `json:"warnings,omitempty"`
}

func (h *APIHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, errors.BadRequest("A CSV file upload is required"))
		return
	}
	defer file.Close()

	ds, err := services.ParseCSV(r.Context(), file, header.Filename)
	if err != nil {
		h.writeError(w, r, errors.ParseWrap(err, "Could not parse uploaded CSV"))
		return
	}

	h.store.Add(ds)

	resp := uploadResponse{
		UploadID:   ds.ID,
		Name:       ds.Name,
		Rows:       len(ds.Rows),
		Columns:    ds.Columns,
		DateStatus: string(ds.DateStatus),
	}
	switch ds.DateStatus {
	case models.DateStatusUnparsed:
		resp.Warnings = append(resp.Warnings, "'OrderDate' column exists but could not parse any dates")
	case models.DateStatusMissing:
		resp.Warnings = append(resp.Warnings, "'OrderDate' column not found: time-series charts disabled")
	}

	// Browser form posts go back to the dashboard; API clients get JSON.
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	errors.WriteSuccess(w, resp)
}

type summaryResponse struct {
	KPIs      models.KPISummary `json:"kpis"`
	Formatted map[string]string `json:"formatted"`
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ds, rows, err := h.view(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	k := services.ComputeKPIs(ds, rows)

	errors.WriteSuccessWithHeaders(w, summaryResponse{
		KPIs: k,
		Formatted: map[string]string{
			"total_sales":     exporter.FormatMoney(k.TotalSales),
			"total_orders":    exporter.FormatCount(k.TotalOrders),
			"avg_order_value": exporter.FormatMoney(k.AvgOrderValue),
			"total_profit":    exporter.FormatMoney(k.TotalProfit),
		},
	}, map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	ds, rows, err := h.view(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	insights := services.BuildInsights(ds, rows)
	if insights == nil {
		insights = []string{}
	}

	errors.WriteSuccess(w, insights)
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.store.Active()
	if !ok {
		h.writeError(w, r, errors.NoDataset())
		return
	}

	f, err := h.parseFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccess(w, services.Options(ds, f))
}

func (h *APIHandlers) HandleDailySales(w http.ResponseWriter, r *http.Request) {
	ds, rows, err := h.view(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if !ds.HasDates() {
		h.writeError(w, r, errors.ColumnMissing(models.ColOrderDate))
		return
	}
	if !ds.Has(models.ColSales) {
		h.writeError(w, r, errors.ColumnMissing(models.ColSales))
		return
	}

	errors.WriteSuccess(w, services.ResampleSales(rows, services.BucketDay))
}

func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	h.handleGroupChart(w, r, models.ColProduct, topProductCount)
}

func (h *APIHandlers) HandleCategorySales(w http.ResponseWriter, r *http.Request) {
	h.handleGroupChart(w, r, models.ColCategory, 0)
}

func (h *APIHandlers) HandleRegionSales(w http.ResponseWriter, r *http.Request) {
	h.handleGroupChart(w, r, models.ColRegion, 0)
}

func (h *APIHandlers) handleGroupChart(w http.ResponseWriter, r *http.Request, column string, top int) {
	ds, rows, err := h.view(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if !ds.Has(column) {
		h.writeError(w, r, errors.ColumnMissing(column))
		return
	}
	if !ds.Has(models.ColSales) {
		h.writeError(w, r, errors.ColumnMissing(models.ColSales))
		return
	}

	groups := services.GroupSales(rows, column)
	if top <= 0 {
		top = len(groups)
	}

	errors.WriteSuccess(w, services.TopSales(groups, top))
}

func (h *APIHandlers) HandleCorrelation(w http.ResponseWriter, r *http.Request) {
	ds, rows, err := h.view(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if len(services.CorrelationColumns(ds)) < 2 {
		h.writeError(w, r, errors.New(errors.CodeColumnMissing, "At least two numeric columns are required for correlation"))
		return
	}

	errors.WriteSuccess(w, services.Correlate(ds, rows))
}

type rowsResponse struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total"`
}

func (h *APIHandlers) HandleRows(w http.ResponseWriter, r *http.Request) {
	ds, rows, err := h.view(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	limit := defaultRowLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxRowLimit {
		limit = maxRowLimit
	}

	columns, records := services.RowRecords(ds, rows, limit)

	errors.WriteSuccess(w, rowsResponse{
		Columns: columns,
		Rows:    records,
		Total:   len(rows),
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.store.Stats())
}

func (h *APIHandlers) HandleSummaryCSV(w http.ResponseWriter, r *http.Request) {
	ds, rows, err := h.view(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	k := services.ComputeKPIs(ds, rows)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporter.SummaryFilename))

	if err := exporter.WriteSummaryCSV(w, k); err != nil {
		h.logger.Error("write summary csv", "error", err)
	}
}

func (h *APIHandlers) HandleReportTXT(w http.ResponseWriter, r *http.Request) {
	ds, rows, err := h.view(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	k := services.ComputeKPIs(ds, rows)
	insights := services.BuildInsights(ds, rows)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporter.ReportFilename))

	if _, err := w.Write([]byte(exporter.TextReport(k, insights, time.Now()))); err != nil {
		h.logger.Error("write text report", "error", err)
	}
}

func (h *APIHandlers) HandleReportXLSX(w http.ResponseWriter, r *http.Request) {
	ds, rows, err := h.view(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	k := services.ComputeKPIs(ds, rows)
	insights := services.BuildInsights(ds, rows)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporter.WorkbookFilename))

	if err := exporter.WriteWorkbook(w, k, insights, time.Now()); err != nil {
		h.logger.Error("write xlsx report", "error", err)
	}
}
