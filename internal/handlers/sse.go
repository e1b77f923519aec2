package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/starfederation/datastar-go/datastar"

	"retail-dashboard/internal/exporter"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/services"
)

var kpiTemplate = template.Must(template.New("kpiCards").Parse(`
<div id="kpi-cards" class="kpi-grid">
<div class="kpi-card"><span class="kpi-label">Total Sales</span><strong>{{.TotalSales}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Total Orders</span><strong>{{.TotalOrders}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Avg Order Value</span><strong>{{.AvgOrderValue}}</strong></div>
<div class="kpi-card"><span class="kpi-label">Total Profit</span><strong>{{.TotalProfit}}</strong></div>
</div>`))

var insightsTemplate = template.Must(template.New("insights").Parse(`
<div id="insights">
{{if .}}<ol>{{range .}}<li>{{.}}</li>{{end}}</ol>{{else}}<p class="muted">No insights for the current selection.</p>{{end}}
</div>`))

const uploadPrompt = `<div id="kpi-cards" class="kpi-grid"><p class="muted">Please upload a CSV file to begin.</p></div>`

type SSEHandlers struct {
	store    *services.Store
	logger   *slog.Logger
	validate *validator.Validate
}

func NewSSEHandlers(store *services.Store, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		store:    store,
		logger:   logger,
		validate: validator.New(),
	}
}

type kpiCards struct {
	TotalSales    string
	TotalOrders   string
	AvgOrderValue string
	TotalProfit   string
}

// HandleDashboard recomputes the full dashboard for the current filter
// state and patches KPI cards, insights, and chart signals over SSE.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ds, ok := h.store.Active()
	if !ok {
		sse.PatchElements(uploadPrompt)
		flush(w)
		return
	}

	f, err := parseFilterState(h.validate, r)
	if err != nil {
		h.logger.Warn("invalid dashboard filters", "error", err)
		sse.PatchElements(`<div id="kpi-cards" class="kpi-grid"><p class="muted">Invalid filter selection.</p></div>`)
		flush(w)
		return
	}

	rows := services.ApplyFilter(ds, f)
	k := services.ComputeKPIs(ds, rows)

	cardsHTML, err := renderTemplate(kpiTemplate, kpiCards{
		TotalSales:    exporter.FormatMoney(k.TotalSales),
		TotalOrders:   exporter.FormatCount(k.TotalOrders),
		AvgOrderValue: exporter.FormatMoney(k.AvgOrderValue),
		TotalProfit:   exporter.FormatMoney(k.TotalProfit),
	})
	if err != nil {
		h.logger.Error("render kpi cards", "error", err)
		return
	}
	sse.PatchElements(cardsHTML)

	insightsHTML, err := renderTemplate(insightsTemplate, services.BuildInsights(ds, rows))
	if err != nil {
		h.logger.Error("render insights", "error", err)
		return
	}
	sse.PatchElements(insightsHTML)

	signals := map[string]any{
		"options": services.Options(ds, f),
	}
	if ds.HasDates() && ds.Has(models.ColSales) {
		signals["dailySales"] = services.ResampleSales(rows, services.BucketDay)
	}
	if ds.Has(models.ColProduct) && ds.Has(models.ColSales) {
		signals["topProducts"] = services.TopSales(services.GroupSales(rows, models.ColProduct), 10)
	}
	if ds.Has(models.ColCategory) && ds.Has(models.ColSales) {
		signals["categorySales"] = services.GroupSales(rows, models.ColCategory)
	}
	if ds.Has(models.ColRegion) && ds.Has(models.ColSales) {
		signals["regionSales"] = services.GroupSales(rows, models.ColRegion)
	}
	if len(services.CorrelationColumns(ds)) >= 2 {
		signals["correlation"] = services.Correlate(ds, rows)
	}

	payload, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal dashboard signals", "error", err)
		return
	}
	sse.PatchSignals(payload)

	flush(w)
}

func renderTemplate(t *template.Template, data any) (string, error) {
	var buf strings.Builder
	err := t.Execute(&buf, data)
	return buf.String(), err
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// parseFilterState binds and validates the shared filter query parameters.
func parseFilterState(v *validator.Validate, r *http.Request) (models.FilterState, error) {
	q := r.URL.Query()

	fq := filterQuery{
		From:  q.Get("from"),
		To:    q.Get("to"),
		Limit: q.Get("limit"),
	}
	if err := v.Struct(fq); err != nil {
		return models.FilterState{}, err
	}

	var f models.FilterState
	if fq.From != "" {
		t, _ := time.Parse("2006-01-02", fq.From)
		f.From = &t
	}
	if fq.To != "" {
		t, _ := time.Parse("2006-01-02", fq.To)
		f.To = &t
	}
	f.Categories = q["category"]
	f.Regions = q["region"]

	return f, nil
}
