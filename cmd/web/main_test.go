package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"retail-dashboard/internal/server"
	"retail-dashboard/internal/services"
)

const testCSV = `OrderDate,Sales,Profit,Quantity,Category,Region,Product,OrderID
2023-01-15,999.99,100,1,Electronics,West,Laptop,T001
2023-02-10,59.98,5,2,Electronics,East,Mouse,T002
2023-03-05,79.99,8,1,Furniture,West,Desk,T003
`

// Test helper to create a store seeded with a parsed upload
func newTestStore(t *testing.T, logger *slog.Logger) *services.Store {
	t.Helper()

	store := services.NewStore(4, logger)
	ds, err := services.ParseCSV(context.Background(), strings.NewReader(testCSV), "test.csv")
	if err != nil {
		t.Fatalf("parsing test CSV: %v", err)
	}
	store.Add(ds)
	return store
}

// Integration tests for HTTP routes
func TestServer_Routes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	srv := server.NewServer(newTestStore(t, logger), logger)

	tests := []struct {
		path           string
		expectedStatus int
		contentType    string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/api/summary", http.StatusOK, "application/json"},
		{"/api/insights", http.StatusOK, "application/json"},
		{"/api/options", http.StatusOK, "application/json"},
		{"/api/rows", http.StatusOK, "application/json"},
		{"/api/charts/daily-sales", http.StatusOK, "application/json"},
		{"/api/charts/top-products", http.StatusOK, "application/json"},
		{"/api/charts/category-sales", http.StatusOK, "application/json"},
		{"/api/charts/region-sales", http.StatusOK, "application/json"},
		{"/api/charts/correlation", http.StatusOK, "application/json"},
		{"/export/summary.csv", http.StatusOK, "text/csv"},
		{"/export/report.txt", http.StatusOK, "text/plain"},
		{"/health", http.StatusOK, "application/json"},
		{"/admin/stats", http.StatusOK, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", tt.path, nil)

			srv.ServeHTTP(w, r)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}

			ct := w.Header().Get("Content-Type")
			if !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}

			// Validate JSON responses
			if tt.contentType == "application/json" {
				var result any
				if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
					t.Errorf("invalid json: %v", err)
				}
			}
		})
	}
}

// Test JSON API responses
func TestServer_JSONResponse(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	srv := server.NewServer(newTestStore(t, logger), logger)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/charts/top-products", nil)
	srv.ServeHTTP(w, r)

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if success, ok := response["success"].(bool); !ok || !success {
		t.Error("expected success=true in response")
	}

	data, ok := response["data"].([]interface{})
	if !ok {
		t.Fatalf("expected data array in response")
	}

	if len(data) == 0 {
		t.Error("expected product groups")
		return
	}

	// Verify structure of first item
	if item, ok := data[0].(map[string]interface{}); ok {
		if key, hasKey := item["key"].(string); !hasKey || key == "" {
			t.Error("group should have non-empty key field")
		}
		if sales, hasSales := item["sales"].(float64); !hasSales || sales < 0 {
			t.Error("group should have non-negative sales field")
		}
	} else {
		t.Error("invalid group structure")
	}
}

// Test Server-Sent Events route
func TestServer_SSERoute(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	srv := server.NewServer(newTestStore(t, logger), logger)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/sse/dashboard", nil)

	srv.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("content-type = %q, should contain 'text/event-stream'", ct)
	}

	if !strings.Contains(w.Body.String(), "event:") {
		t.Error("expected SSE events in response body")
	}
}

// Test missing-dataset behavior across the API surface
func TestServer_NoDataset(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	srv := server.NewServer(services.NewStore(4, logger), logger)

	paths := []string{
		"/api/summary",
		"/api/insights",
		"/api/rows",
		"/export/summary.csv",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", path, nil)

			srv.ServeHTTP(w, r)

			if w.Code != http.StatusNotFound {
				t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
			}
			if !strings.Contains(w.Body.String(), "NO_DATASET") {
				t.Errorf("expected NO_DATASET error, got: %s", w.Body.String())
			}
		})
	}
}

// Test upload via the full mux
func TestServer_UploadMethodNotAllowed(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	srv := server.NewServer(services.NewStore(4, logger), logger)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/upload", nil)

	srv.ServeHTTP(w, r)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}
