package services

import (
	"context"
	"log/slog"
	"sync"

	"retail-dashboard/internal/models"
)

// Store holds uploaded datasets in memory. The newest upload becomes the
// active dataset; the oldest is evicted once maxDatasets is exceeded.
type Store struct {
	mu       sync.RWMutex
	datasets map[string]*models.Dataset
	order    []string
	active   string
	max      int
	logger   *slog.Logger
}

func NewStore(maxDatasets int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if maxDatasets < 1 {
		maxDatasets = 1
	}
	return &Store{
		datasets: make(map[string]*models.Dataset),
		max:      maxDatasets,
		logger:   logger,
	}
}

// Add registers an upload and makes it the active dataset.
func (s *Store) Add(d *models.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.datasets[d.ID] = d
	s.order = append(s.order, d.ID)
	s.active = d.ID

	for len(s.order) > s.max {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.datasets, oldest)
		s.logger.Info("evicted dataset", "dataset_id", oldest)
	}

	s.logger.Info("dataset stored",
		"dataset_id", d.ID,
		"name", d.Name,
		"rows", len(d.Rows),
		"columns", len(d.Columns),
		"date_status", d.DateStatus,
	)
}

// Active returns the most recent upload, if any.
func (s *Store) Active() (*models.Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.datasets[s.active]
	return d, ok
}

// Get returns a dataset by upload ID.
func (s *Store) Get(id string) (*models.Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.datasets[id]
	return d, ok
}

// Shutdown releases every stored dataset so in-flight handlers finish
// against their own references while the server drains.
func (s *Store) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	released := len(s.datasets)
	s.datasets = make(map[string]*models.Dataset)
	s.order = nil
	s.active = ""

	s.logger.Info("dataset store shut down", "datasets_released", released)
	return ctx.Err()
}

// Stats reports store contents for the admin endpoint.
func (s *Store) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"datasets": len(s.datasets),
	}
	if d, ok := s.datasets[s.active]; ok {
		stats["active_id"] = d.ID
		stats["active_name"] = d.Name
		stats["rows"] = len(d.Rows)
		stats["columns"] = len(d.Columns)
		stats["date_status"] = string(d.DateStatus)
		stats["uploaded_at"] = d.UploadedAt
	}
	return stats
}
