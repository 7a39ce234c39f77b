// Package application resolves vessel positions and tracks.
package application

import (
	"context"
	"time"

	ais "ais-insight/internal/ais/domain"
	"ais-insight/internal/observability/metrics"
)

const (
	// DefaultLimit applies when the caller gives no positive limit.
	DefaultLimit = 100
	// MaxLimit caps the number of vessels returned in one call.
	MaxLimit = 150000
	// HistoryLimit caps the number of track points returned per vessel.
	HistoryLimit = 100
)

// Service serves latest positions and vessel history.
type Service struct {
	store ais.PositionQuery
}

// NewService builds a vessel query service.
func NewService(store ais.PositionQuery) (*Service, error) {
	if store == nil {
		return nil, ais.ErrNilStore
	}
	return &Service{store: store}, nil
}

// ClampLimit applies the default and ceiling to a requested limit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LatestPositions returns the newest valid fix per vessel, newest first.
func (s *Service) LatestPositions(ctx context.Context, limit int) ([]ais.VesselSnapshot, error) {
	if s == nil || s.store == nil {
		return nil, ais.ErrNilStore
	}
	start := time.Now()
	reports, err := s.store.LatestPositions(ctx, ClampLimit(limit))
	metrics.ObserveQuery("latest_positions", metrics.ResultOf(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	out := make([]ais.VesselSnapshot, 0, len(reports))
	for _, report := range reports {
		out = append(out, ais.NewVesselSnapshot(report))
	}
	return out, nil
}

// History returns the most recent reports of one vessel without filtering.
func (s *Service) History(ctx context.Context, mmsi int64) ([]ais.HistoryPoint, error) {
	if s == nil || s.store == nil {
		return nil, ais.ErrNilStore
	}
	start := time.Now()
	reports, err := s.store.History(ctx, mmsi, HistoryLimit)
	metrics.ObserveQuery("history", metrics.ResultOf(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	out := make([]ais.HistoryPoint, 0, len(reports))
	for _, report := range reports {
		out = append(out, ais.NewHistoryPoint(report))
	}
	return out, nil
}
