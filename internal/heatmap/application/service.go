// Package application aggregates reports into map grid cells.
package application

import (
	"context"
	"time"

	ais "ais-insight/internal/ais/domain"
	"ais-insight/internal/observability/metrics"
)

// Service serves density and speed heatmaps.
type Service struct {
	store ais.HeatmapQuery
}

// NewService builds a heatmap service.
func NewService(store ais.HeatmapQuery) (*Service, error) {
	if store == nil {
		return nil, ais.ErrNilStore
	}
	return &Service{store: store}, nil
}

// Density counts reports per grid cell.
func (s *Service) Density(ctx context.Context) ([]ais.HeatmapPoint, error) {
	if s == nil || s.store == nil {
		return nil, ais.ErrNilStore
	}
	start := time.Now()
	points, err := s.store.DensityCells(ctx)
	metrics.ObserveQuery("heatmap_density", metrics.ResultOf(err), time.Since(start))
	return points, err
}

// AverageSpeed averages speed over ground per grid cell. Cells without a
// speed sample are omitted.
func (s *Service) AverageSpeed(ctx context.Context) ([]ais.HeatmapPoint, error) {
	if s == nil || s.store == nil {
		return nil, ais.ErrNilStore
	}
	start := time.Now()
	points, err := s.store.SpeedCells(ctx)
	metrics.ObserveQuery("heatmap_speed", metrics.ResultOf(err), time.Since(start))
	return points, err
}
