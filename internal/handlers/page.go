package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
)

var pageTemplate = template.Must(template.New("dashboard").Parse(`<!doctype html>
<html><head>
<meta charset="utf-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>Retail Analytics Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar/bundles/datastar.js"></script>
<style>
body{font-family:system-ui,Segoe UI,Roboto,Arial;background:#0b1020;color:#e8ecff;margin:0;padding:20px}
.card{background:#111837;border:1px solid #203063;border-radius:14px;padding:16px;margin:12px 0}
h1{margin:0 0 10px 0} .muted{color:#9aa7cf}
.kpi-grid{display:grid;grid-template-columns:repeat(4,1fr);gap:12px}
.kpi-card{background:#1b2a59;border-radius:10px;padding:12px}
.kpi-label{display:block;color:#9aa7cf;font-size:13px}
table{width:100%;border-collapse:collapse}
th,td{border-bottom:1px solid #22305f;padding:8px;text-align:left}
button,a.button{background:#7aa2ff;color:#04102a;border:none;padding:8px 12px;border-radius:10px;cursor:pointer;text-decoration:none;display:inline-block}
input,select{background:#0b1020;color:#e8ecff;border:1px solid #203063;border-radius:8px;padding:6px}
</style>
</head><body data-on-load="@get('/sse/dashboard')">
<h1>Retail Analytics Dashboard</h1>
<p class="muted">Upload your retail dataset (CSV) to explore sales, customers, and trends.</p>

<div class="card">
  <h3>Upload CSV</h3>
  <form method="POST" action="/api/upload" enctype="multipart/form-data">
    <input type="file" name="file" accept=".csv" required>
    <button type="submit">Analyze</button>
  </form>
  <p class="muted">Recognized columns: OrderDate, Sales, Quantity, Profit, UnitPrice, Category, Region, Product, OrderID</p>
</div>

<div class="card">
  <h3>Filters</h3>
  <form id="filters" data-on-change="@get('/sse/dashboard', {contentType: 'form'})">
    <label>From <input type="date" name="from"></label>
    <label>To <input type="date" name="to"></label>
    <label>Category <select name="category" multiple></select></label>
    <label>Region <select name="region" multiple></select></label>
  </form>
</div>

<div class="card">
  <h3>Key Performance Indicators</h3>
  <div id="kpi-cards" class="kpi-grid"><p class="muted">Please upload a CSV file to begin.</p></div>
</div>

<div class="card">
  <h3>Smart Insights</h3>
  <div id="insights"><p class="muted">No insights yet.</p></div>
</div>

<div class="card"><h3>Daily Sales Trend</h3><div id="chart-daily" data-signals="{dailySales: []}"></div></div>
<div class="card"><h3>Top 10 Products by Sales</h3><div id="chart-products" data-signals="{topProducts: []}"></div></div>
<div class="card"><h3>Sales by Category</h3><div id="chart-categories" data-signals="{categorySales: []}"></div></div>
<div class="card"><h3>Sales by Region</h3><div id="chart-regions" data-signals="{regionSales: []}"></div></div>
<div class="card"><h3>Correlation Heatmap</h3><div id="chart-correlation" data-signals="{correlation: {}}"></div></div>

<div class="card">
  <h3>Download Report</h3>
  <a class="button" href="/export/summary.csv">Download CSV Summary</a>
  <a class="button" href="/export/report.txt">Download TXT Report</a>
  <a class="button" href="/export/report.xlsx">Download XLSX Report</a>
</div>
</body></html>
`))

type PageHandlers struct {
	logger *slog.Logger
}

func NewPageHandlers(logger *slog.Logger) *PageHandlers {
	return &PageHandlers{logger: logger}
}

func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, nil); err != nil {
		h.logger.Error("render dashboard page", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}
