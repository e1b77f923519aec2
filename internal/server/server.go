package server

import (
	"log/slog"
	"net/http"

	"retail-dashboard/internal/handlers"
	"retail-dashboard/internal/services"
)

type Server struct {
	store        *services.Store
	mux          *http.ServeMux
	logger       *slog.Logger
	pageHandlers *handlers.PageHandlers
	apiHandlers  *handlers.APIHandlers
	sseHandlers  *handlers.SSEHandlers
}

func NewServer(store *services.Store, logger *slog.Logger) *Server {
	s := &Server{
		store:        store,
		mux:          http.NewServeMux(),
		logger:       logger,
		pageHandlers: handlers.NewPageHandlers(logger),
		apiHandlers:  handlers.NewAPIHandlers(store, logger),
		sseHandlers:  handlers.NewSSEHandlers(store, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", s.pageHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// Upload and REST API endpoints
	s.mux.HandleFunc("POST /api/upload", s.apiHandlers.HandleUpload)
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/insights", s.apiHandlers.HandleInsights)
	s.mux.HandleFunc("GET /api/options", s.apiHandlers.HandleOptions)
	s.mux.HandleFunc("GET /api/rows", s.apiHandlers.HandleRows)
	s.mux.HandleFunc("GET /api/charts/daily-sales", s.apiHandlers.HandleDailySales)
	s.mux.HandleFunc("GET /api/charts/top-products", s.apiHandlers.HandleTopProducts)
	s.mux.HandleFunc("GET /api/charts/category-sales", s.apiHandlers.HandleCategorySales)
	s.mux.HandleFunc("GET /api/charts/region-sales", s.apiHandlers.HandleRegionSales)
	s.mux.HandleFunc("GET /api/charts/correlation", s.apiHandlers.HandleCorrelation)

	// Downloadable report artifacts
	s.mux.HandleFunc("GET /export/summary.csv", s.apiHandlers.HandleSummaryCSV)
	s.mux.HandleFunc("GET /export/report.txt", s.apiHandlers.HandleReportTXT)
	s.mux.HandleFunc("GET /export/report.xlsx", s.apiHandlers.HandleReportXLSX)

	// Datastar SSE endpoint
	s.mux.HandleFunc("GET /sse/dashboard", s.sseHandlers.HandleDashboard)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
