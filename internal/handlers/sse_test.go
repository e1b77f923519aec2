package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"retail-dashboard/internal/services"
)

func newTestSSE(t *testing.T) (*SSEHandlers, *services.Store) {
	t.Helper()
	store := services.NewStore(4, testLogger())
	return NewSSEHandlers(store, testLogger()), store
}

func addSampleDataset(t *testing.T, store *services.Store, csvData string) {
	t.Helper()
	ds, err := services.ParseCSV(context.Background(), strings.NewReader(csvData), "sample.csv")
	if err != nil {
		t.Fatalf("parsing sample dataset: %v", err)
	}
	store.Add(ds)
}

func TestHandleDashboard_NoDataset(t *testing.T) {
	h, _ := newTestSSE(t)

	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard", nil)
	w := httptest.NewRecorder()

	h.HandleDashboard(w, req)

	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("expected SSE content type, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Please upload a CSV file to begin.") {
		t.Errorf("expected upload prompt, got: %s", w.Body.String())
	}
}

func TestHandleDashboard_PatchesKPIsAndInsights(t *testing.T) {
	h, store := newTestSSE(t)
	addSampleDataset(t, store, sampleCSV)

	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard", nil)
	w := httptest.NewRecorder()

	h.HandleDashboard(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "event:") || !strings.Contains(body, "data:") {
		t.Fatalf("expected SSE events in body, got: %s", body)
	}
	for _, want := range []string{
		`id="kpi-cards"`,
		"$600.00",
		`id="insights"`,
		"Top region: West with $400.00 sales",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}
}

func TestHandleDashboard_SignalsFollowColumnGating(t *testing.T) {
	h, store := newTestSSE(t)
	// No dates, no Product, only one numeric column.
	addSampleDataset(t, store, "Sales,Region\n100,West\n200,East\n")

	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard", nil)
	w := httptest.NewRecorder()

	h.HandleDashboard(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "regionSales") {
		t.Error("expected regionSales signal for a dataset with Region and Sales")
	}
	for _, absent := range []string{"dailySales", "topProducts", "categorySales", "correlation"} {
		if strings.Contains(body, absent) {
			t.Errorf("expected %s signal to be omitted", absent)
		}
	}
}

func TestHandleDashboard_AppliesFilters(t *testing.T) {
	h, store := newTestSSE(t)
	addSampleDataset(t, store, sampleCSV)

	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard?region=East", nil)
	w := httptest.NewRecorder()

	h.HandleDashboard(w, req)

	if !strings.Contains(w.Body.String(), "$200.00") {
		t.Errorf("expected filtered total of $200.00, got: %s", w.Body.String())
	}
}

func TestHandleDashboard_InvalidFilter(t *testing.T) {
	h, store := newTestSSE(t)
	addSampleDataset(t, store, sampleCSV)

	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard?from=garbage", nil)
	w := httptest.NewRecorder()

	h.HandleDashboard(w, req)

	if !strings.Contains(w.Body.String(), "Invalid filter selection.") {
		t.Errorf("expected invalid-filter patch, got: %s", w.Body.String())
	}
}
