package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"retail-dashboard/internal/services"
)

const sampleCSV = `OrderDate,Sales,Profit,Quantity,Category,Region,Product,OrderID
2023-01-10,100,10,1,Electronics,West,Phone,A1
2023-02-10,200,20,2,Furniture,East,Desk,A2
2023-03-10,300,30,3,Electronics,West,Laptop,A3
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestAPI(t *testing.T) *APIHandlers {
	t.Helper()
	return NewAPIHandlers(services.NewStore(4, testLogger()), testLogger())
}

// uploadCSV pushes a CSV through the upload handler and fails the test on
// anything but a 200.
func uploadCSV(t *testing.T, h *APIHandlers, csvData string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "sales.csv")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := io.WriteString(part, csvData); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	h.HandleUpload(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("upload failed with status %d: %s", w.Code, w.Body.String())
	}
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Success bool `json:"success"`
}

func decodeError(t *testing.T, body *bytes.Buffer) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		t.Fatalf("decoding error envelope: %v", err)
	}
	return env
}

func TestHandleUpload(t *testing.T) {
	h := newTestAPI(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "sales.csv")
	io.WriteString(part, sampleCSV)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	h.HandleUpload(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var env struct {
		Data    uploadResponse `json:"data"`
		Success bool           `json:"success"`
	}
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !env.Success {
		t.Error("expected success=true")
	}
	if env.Data.Rows != 3 {
		t.Errorf("expected 3 rows, got %d", env.Data.Rows)
	}
	if env.Data.DateStatus != "ok" {
		t.Errorf("expected date_status ok, got %q", env.Data.DateStatus)
	}
	if len(env.Data.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", env.Data.Warnings)
	}
	if env.Data.UploadID == "" {
		t.Error("expected a non-empty upload ID")
	}
}

func TestHandleUpload_Warnings(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		warning string
	}{
		{"no date column", "Sales\n100\n", "'OrderDate' column not found: time-series charts disabled"},
		{"unparseable dates", "OrderDate,Sales\nnot-a-date,100\n", "'OrderDate' column exists but could not parse any dates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestAPI(t)

			var body bytes.Buffer
			mw := multipart.NewWriter(&body)
			part, _ := mw.CreateFormFile("file", "sales.csv")
			io.WriteString(part, tt.csv)
			mw.Close()

			req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			w := httptest.NewRecorder()

			h.HandleUpload(w, req)

			if !strings.Contains(w.Body.String(), tt.warning) {
				t.Errorf("expected warning %q in response: %s", tt.warning, w.Body.String())
			}
		})
	}
}

func TestHandleUpload_NoFile(t *testing.T) {
	h := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("plain body"))
	w := httptest.NewRecorder()

	h.HandleUpload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if env := decodeError(t, w.Body); env.Error.Code != "BAD_REQUEST" {
		t.Errorf("expected BAD_REQUEST, got %q", env.Error.Code)
	}
}

func TestHandleUpload_EmptyCSV(t *testing.T) {
	h := newTestAPI(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.CreateFormFile("file", "empty.csv")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	h.HandleUpload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if env := decodeError(t, w.Body); env.Error.Code != "PARSE_ERROR" {
		t.Errorf("expected PARSE_ERROR, got %q", env.Error.Code)
	}
}

func TestHandleUpload_BrowserRedirect(t *testing.T) {
	h := newTestAPI(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "sales.csv")
	io.WriteString(part, sampleCSV)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	w := httptest.NewRecorder()

	h.HandleUpload(w, req)

	if w.Code != http.StatusSeeOther {
		t.Errorf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("expected redirect to /, got %q", loc)
	}
}

func TestHandleSummary_NoDataset(t *testing.T) {
	h := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	w := httptest.NewRecorder()

	h.HandleSummary(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if env := decodeError(t, w.Body); env.Error.Code != "NO_DATASET" {
		t.Errorf("expected NO_DATASET, got %q", env.Error.Code)
	}
}

func TestHandleSummary(t *testing.T) {
	h := newTestAPI(t)
	uploadCSV(t, h, sampleCSV)

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	w := httptest.NewRecorder()

	h.HandleSummary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected Cache-Control no-store, got %q", cc)
	}

	var env struct {
		Data summaryResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if env.Data.KPIs.TotalSales != 600 {
		t.Errorf("expected total sales 600, got %v", env.Data.KPIs.TotalSales)
	}
	if env.Data.KPIs.TotalOrders != 3 {
		t.Errorf("expected 3 orders, got %d", env.Data.KPIs.TotalOrders)
	}
	if env.Data.Formatted["total_sales"] != "$600.00" {
		t.Errorf("expected formatted $600.00, got %q", env.Data.Formatted["total_sales"])
	}
	if env.Data.Formatted["avg_order_value"] != "$200.00" {
		t.Errorf("expected formatted $200.00, got %q", env.Data.Formatted["avg_order_value"])
	}
}

func TestHandleSummary_FilteredByRegion(t *testing.T) {
	h := newTestAPI(t)
	uploadCSV(t, h, sampleCSV)

	req := httptest.NewRequest(http.MethodGet, "/api/summary?region=East", nil)
	w := httptest.NewRecorder()

	h.HandleSummary(w, req)

	var env struct {
		Data summaryResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if env.Data.KPIs.TotalSales != 200 {
		t.Errorf("expected total sales 200 for East, got %v", env.Data.KPIs.TotalSales)
	}
}

func TestHandleSummary_InvalidFilter(t *testing.T) {
	h := newTestAPI(t)
	uploadCSV(t, h, sampleCSV)

	req := httptest.NewRequest(http.MethodGet, "/api/summary?from=not-a-date", nil)
	w := httptest.NewRecorder()

	h.HandleSummary(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if env := decodeError(t, w.Body); env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %q", env.Error.Code)
	}
}

func TestHandleInsights(t *testing.T) {
	h := newTestAPI(t)
	uploadCSV(t, h, sampleCSV)

	req := httptest.NewRequest(http.MethodGet, "/api/insights", nil)
	w := httptest.NewRecorder()

	h.HandleInsights(w, req)

	var env struct {
		Data []string `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(env.Data) != 3 {
		t.Fatalf("expected 3 insights, got %v", env.Data)
	}
	if env.Data[0] != "Top region: West with $400.00 sales" {
		t.Errorf("unexpected first insight: %q", env.Data[0])
	}
}

func TestHandleDailySales_NoDates(t *testing.T) {
	h := newTestAPI(t)
	uploadCSV(t, h, "Sales\n100\n")

	req := httptest.NewRequest(http.MethodGet, "/api/charts/daily-sales", nil)
	w := httptest.NewRecorder()

	h.HandleDailySales(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
	if env := decodeError(t, w.Body); env.Error.Code != "COLUMN_MISSING" {
		t.Errorf("expected COLUMN_MISSING, got %q", env.Error.Code)
	}
}

func TestHandleRegionSales_MissingColumn(t *testing.T) {
	h := newTestAPI(t)
	uploadCSV(t, h, "Sales\n100\n")

	req := httptest.NewRequest(http.MethodGet, "/api/charts/region-sales", nil)
	w := httptest.NewRecorder()

	h.HandleRegionSales(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
}

func TestHandleCorrelation_TooFewNumericColumns(t *testing.T) {
	h := newTestAPI(t)
	uploadCSV(t, h, "Sales,Region\n100,West\n")

	req := httptest.NewRequest(http.MethodGet, "/api/charts/correlation", nil)
	w := httptest.NewRecorder()

	h.HandleCorrelation(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
}

func TestHandleRows(t *testing.T) {
	h := newTestAPI(t)
	uploadCSV(t, h, sampleCSV)

	req := httptest.NewRequest(http.MethodGet, "/api/rows?limit=2", nil)
	w := httptest.NewRecorder()

	h.HandleRows(w, req)

	var env struct {
		Data rowsResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if env.Data.Total != 3 {
		t.Errorf("expected total 3, got %d", env.Data.Total)
	}
	if len(env.Data.Rows) != 2 {
		t.Errorf("expected 2 rows with limit=2, got %d", len(env.Data.Rows))
	}
	if len(env.Data.Columns) != 8 {
		t.Errorf("expected 8 columns, got %v", env.Data.Columns)
	}
}

func TestHandleSummaryCSV(t *testing.T) {
	h := newTestAPI(t)
	uploadCSV(t, h, sampleCSV)

	req := httptest.NewRequest(http.MethodGet, "/export/summary.csv", nil)
	w := httptest.NewRecorder()

	h.HandleSummaryCSV(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="summary.csv"` {
		t.Errorf("unexpected Content-Disposition: %q", cd)
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "Metric,Value\n") {
		t.Errorf("expected Metric,Value header, got: %s", body)
	}
	if !strings.Contains(body, "Total Sales,$600.00") {
		t.Errorf("expected formatted total sales row, got: %s", body)
	}
}

func TestHandleReportTXT(t *testing.T) {
	h := newTestAPI(t)
	uploadCSV(t, h, sampleCSV)

	req := httptest.NewRequest(http.MethodGet, "/export/report.txt", nil)
	w := httptest.NewRecorder()

	h.HandleReportTXT(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="Retail_Report.txt"` {
		t.Errorf("unexpected Content-Disposition: %q", cd)
	}
	body := w.Body.String()
	for _, want := range []string{
		"    RETAIL ANALYTICS REPORT",
		"----- KEY METRICS -----",
		"Total Sales      : $600.00",
		"1. Top region: West with $400.00 sales",
		"----- END OF REPORT -----",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected report to contain %q, got:\n%s", want, body)
		}
	}
}

func TestHandleReportXLSX(t *testing.T) {
	h := newTestAPI(t)
	uploadCSV(t, h, sampleCSV)

	req := httptest.NewRequest(http.MethodGet, "/export/report.xlsx", nil)
	w := httptest.NewRecorder()

	h.HandleReportXLSX(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="Retail_Report.xlsx"` {
		t.Errorf("unexpected Content-Disposition: %q", cd)
	}
	if w.Body.Len() == 0 {
		t.Error("expected a non-empty workbook body")
	}
}

func TestHandleHealth(t *testing.T) {
	h := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"healthy"`) {
		t.Errorf("unexpected health body: %s", w.Body.String())
	}
}

func TestHandleOptions(t *testing.T) {
	h := newTestAPI(t)
	uploadCSV(t, h, sampleCSV)

	req := httptest.NewRequest(http.MethodGet, "/api/options", nil)
	w := httptest.NewRecorder()

	h.HandleOptions(w, req)

	var env struct {
		Data struct {
			Categories []string `json:"categories"`
			Regions    []string `json:"regions"`
			MinDate    string   `json:"min_date"`
			MaxDate    string   `json:"max_date"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(env.Data.Categories) != 2 || env.Data.Categories[0] != "Electronics" {
		t.Errorf("unexpected categories: %v", env.Data.Categories)
	}
	if env.Data.MinDate != "2023-01-10" || env.Data.MaxDate != "2023-03-10" {
		t.Errorf("unexpected date bounds: %q..%q", env.Data.MinDate, env.Data.MaxDate)
	}
}
