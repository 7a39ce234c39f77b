package ais

import (
	"context"
	"errors"
	"time"
)

// ReplaceMode selects how a full replace is staged.
type ReplaceMode string

const (
	// ReplaceDelete clears the live table up front and appends in place.
	ReplaceDelete ReplaceMode = "delete"
	// ReplaceShadow loads into a staging table and swaps it in on commit.
	ReplaceShadow ReplaceMode = "shadow"
)

// ErrInvalidReplaceMode is returned for unknown replace modes.
var ErrInvalidReplaceMode = errors.New("ais: invalid replace mode")

// ParseReplaceMode validates a replace mode string. Empty means delete.
func ParseReplaceMode(value string) (ReplaceMode, error) {
	switch ReplaceMode(value) {
	case "", ReplaceDelete:
		return ReplaceDelete, nil
	case ReplaceShadow:
		return ReplaceShadow, nil
	default:
		return "", ErrInvalidReplaceMode
	}
}

// SchemaManager provisions the backing database and table.
type SchemaManager interface {
	EnsureDatabase(ctx context.Context) error
	EnsureSchema(ctx context.Context) error
	SchemaExists(ctx context.Context) (bool, error)
}

// Loader receives the rows of one full replace.
type Loader interface {
	// Append writes one batch atomically.
	Append(ctx context.Context, reports []Report) error
	// Commit publishes the loaded rows.
	Commit(ctx context.Context) error
	// Abort ends a failed load.
	Abort(ctx context.Context) error
}

// ReplaceStrategy starts a full replace of the telemetry table.
type ReplaceStrategy interface {
	BeginReplace(ctx context.Context) (Loader, error)
}

// PositionQuery reads per-vessel rows.
type PositionQuery interface {
	// LatestPositions returns one identity- and position-valid report per
	// vessel, newest first, at most limit rows.
	LatestPositions(ctx context.Context, limit int) ([]Report, error)
	// History returns up to limit reports of one vessel, newest first.
	History(ctx context.Context, mmsi int64, limit int) ([]Report, error)
}

// HeatmapQuery aggregates reports by grid cell.
type HeatmapQuery interface {
	DensityCells(ctx context.Context) ([]HeatmapPoint, error)
	SpeedCells(ctx context.Context) ([]HeatmapPoint, error)
}

// TrendQuery aggregates time-valid reports by calendar bucket.
type TrendQuery interface {
	DistinctVesselsPerBucket(ctx context.Context, granularity Granularity) ([]SeriesPoint, error)
	AverageSpeedPerBucket(ctx context.Context, granularity Granularity) ([]SeriesPoint, error)
	Arrivals(ctx context.Context) ([]DestinationCount, error)
	ShipTypesPerMonth(ctx context.Context) ([]ShipTypeMonthCount, error)
	ShipTypesAtDestination(ctx context.Context, destination string) ([]ShipTypeCount, error)
	VesselsPerCalendarMonth(ctx context.Context, shipType string) ([]MonthCount, error)
	CommercialRatio(ctx context.Context, classification ShipClassification) ([]CommercialRatio, error)
	SummaryCounts(ctx context.Context, from, to time.Time) (SummaryCounts, error)
}

// Store is a complete telemetry store backend.
type Store interface {
	SchemaManager
	ReplaceStrategy
	PositionQuery
	HeatmapQuery
	TrendQuery
	CountReports(ctx context.Context) (int64, error)
}
