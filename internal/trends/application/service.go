// Package application serves calendar-bucketed trend statistics.
package application

import (
	"context"
	"errors"
	"strings"
	"time"

	ais "ais-insight/internal/ais/domain"
	"ais-insight/internal/observability/metrics"
)

// ErrDestinationRequired is returned when a destination query has no destination.
var ErrDestinationRequired = errors.New("trends: destination is required")

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// DailyShips counts distinct vessels seen on one day.
type DailyShips struct {
	Day   string `json:"day"`
	Ships int64  `json:"ships"`
}

// HourlyShips counts distinct vessels seen in one hour.
type HourlyShips struct {
	Hour  string `json:"hour"`
	Ships int64  `json:"ships"`
}

// DailySpeed is the mean speed over ground on one day.
type DailySpeed struct {
	Day      string  `json:"day"`
	AvgSpeed float64 `json:"avg_speed"`
}

// HourlySpeed is the mean speed over ground in one hour.
type HourlySpeed struct {
	Hour     string  `json:"hour"`
	AvgSpeed float64 `json:"avg_speed"`
}

// ShipTypeMonth counts distinct vessels of one type in one month.
type ShipTypeMonth struct {
	Month    string `json:"month"`
	ShipType string `json:"ship_type"`
	Count    int64  `json:"count"`
}

// MonthlyRatio splits one month's vessels into commercial and the rest.
type MonthlyRatio struct {
	Month         string `json:"month"`
	Commercial    int64  `json:"commercial"`
	NonCommercial int64  `json:"non_commercial"`
}

// Option configures a Service.
type Option func(*Service)

// WithClassification sets the commercial ship-type table.
func WithClassification(classification ais.ShipClassification) Option {
	return func(s *Service) {
		s.classification = classification
	}
}

// WithClock overrides the clock used by the monthly summary.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// Service aggregates time-valid reports into trend series.
type Service struct {
	store          ais.TrendQuery
	classification ais.ShipClassification
	clock          Clock
}

// NewService builds a trends service. The classification defaults to v1.
func NewService(store ais.TrendQuery, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, ais.ErrNilStore
	}
	s := &Service{
		store:          store,
		classification: ais.DefaultClassification(),
		clock:          systemClock{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if err := s.classification.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Classification returns the commercial ship-type table in use.
func (s *Service) Classification() ais.ShipClassification {
	if s == nil {
		return ais.ShipClassification{}
	}
	return s.classification
}

// ShipsPerDay counts distinct vessels per UTC day, ascending.
func (s *Service) ShipsPerDay(ctx context.Context) ([]DailyShips, error) {
	points, err := s.vesselSeries(ctx, "ships_per_day", ais.GranularityDay)
	if err != nil {
		return nil, err
	}
	out := make([]DailyShips, 0, len(points))
	for _, p := range points {
		out = append(out, DailyShips{Day: p.Bucket.Format(ais.GranularityDay.Layout()), Ships: int64(p.Value)})
	}
	return out, nil
}

// ShipsPerHour counts distinct vessels per UTC hour, ascending.
func (s *Service) ShipsPerHour(ctx context.Context) ([]HourlyShips, error) {
	points, err := s.vesselSeries(ctx, "ships_per_hour", ais.GranularityHour)
	if err != nil {
		return nil, err
	}
	out := make([]HourlyShips, 0, len(points))
	for _, p := range points {
		out = append(out, HourlyShips{Hour: p.Bucket.Format(ais.GranularityHour.Layout()), Ships: int64(p.Value)})
	}
	return out, nil
}

// AvgSpeedPerDay averages speed per UTC day. Days without speed are omitted.
func (s *Service) AvgSpeedPerDay(ctx context.Context) ([]DailySpeed, error) {
	points, err := s.speedSeries(ctx, "avg_speed_per_day", ais.GranularityDay)
	if err != nil {
		return nil, err
	}
	out := make([]DailySpeed, 0, len(points))
	for _, p := range points {
		out = append(out, DailySpeed{Day: p.Bucket.Format(ais.GranularityDay.Layout()), AvgSpeed: p.Value})
	}
	return out, nil
}

// AvgSpeedPerHour averages speed per UTC hour. Hours without speed are omitted.
func (s *Service) AvgSpeedPerHour(ctx context.Context) ([]HourlySpeed, error) {
	points, err := s.speedSeries(ctx, "avg_speed_per_hour", ais.GranularityHour)
	if err != nil {
		return nil, err
	}
	out := make([]HourlySpeed, 0, len(points))
	for _, p := range points {
		out = append(out, HourlySpeed{Hour: p.Bucket.Format(ais.GranularityHour.Layout()), AvgSpeed: p.Value})
	}
	return out, nil
}

func (s *Service) vesselSeries(ctx context.Context, operation string, granularity ais.Granularity) ([]ais.SeriesPoint, error) {
	if s == nil || s.store == nil {
		return nil, ais.ErrNilStore
	}
	start := time.Now()
	points, err := s.store.DistinctVesselsPerBucket(ctx, granularity)
	metrics.ObserveQuery(operation, metrics.ResultOf(err), time.Since(start))
	return points, err
}

func (s *Service) speedSeries(ctx context.Context, operation string, granularity ais.Granularity) ([]ais.SeriesPoint, error) {
	if s == nil || s.store == nil {
		return nil, ais.ErrNilStore
	}
	start := time.Now()
	points, err := s.store.AverageSpeedPerBucket(ctx, granularity)
	metrics.ObserveQuery(operation, metrics.ResultOf(err), time.Since(start))
	return points, err
}

// Arrivals counts reports per destination, busiest first.
func (s *Service) Arrivals(ctx context.Context) ([]ais.DestinationCount, error) {
	if s == nil || s.store == nil {
		return nil, ais.ErrNilStore
	}
	start := time.Now()
	items, err := s.store.Arrivals(ctx)
	metrics.ObserveQuery("arrivals", metrics.ResultOf(err), time.Since(start))
	return items, err
}

// ShipTypeTrends counts distinct vessels per month and ship type.
func (s *Service) ShipTypeTrends(ctx context.Context) ([]ShipTypeMonth, error) {
	if s == nil || s.store == nil {
		return nil, ais.ErrNilStore
	}
	start := time.Now()
	items, err := s.store.ShipTypesPerMonth(ctx)
	metrics.ObserveQuery("ship_type_trends", metrics.ResultOf(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	out := make([]ShipTypeMonth, 0, len(items))
	for _, item := range items {
		out = append(out, ShipTypeMonth{
			Month:    item.Month.Format(ais.GranularityMonth.Layout()),
			ShipType: item.ShipType,
			Count:    item.Count,
		})
	}
	return out, nil
}

// ShipTypesAtDestination counts distinct vessels per ship type for one
// destination. A blank destination is rejected before any query runs.
func (s *Service) ShipTypesAtDestination(ctx context.Context, destination string) ([]ais.ShipTypeCount, error) {
	if strings.TrimSpace(destination) == "" {
		return nil, ErrDestinationRequired
	}
	if s == nil || s.store == nil {
		return nil, ais.ErrNilStore
	}
	start := time.Now()
	items, err := s.store.ShipTypesAtDestination(ctx, destination)
	metrics.ObserveQuery("ship_types_at_destination", metrics.ResultOf(err), time.Since(start))
	return items, err
}

// FishingSeasonality counts distinct fishing vessels per calendar month
// number across all years.
func (s *Service) FishingSeasonality(ctx context.Context) ([]ais.MonthCount, error) {
	if s == nil || s.store == nil {
		return nil, ais.ErrNilStore
	}
	start := time.Now()
	items, err := s.store.VesselsPerCalendarMonth(ctx, ais.ShipTypeFishing)
	metrics.ObserveQuery("fishing_seasonality", metrics.ResultOf(err), time.Since(start))
	return items, err
}

// CommercialRatio splits each month's typed vessels by the classification.
func (s *Service) CommercialRatio(ctx context.Context) ([]MonthlyRatio, error) {
	if s == nil || s.store == nil {
		return nil, ais.ErrNilStore
	}
	start := time.Now()
	items, err := s.store.CommercialRatio(ctx, s.classification)
	metrics.ObserveQuery("commercial_ratio", metrics.ResultOf(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	out := make([]MonthlyRatio, 0, len(items))
	for _, item := range items {
		out = append(out, MonthlyRatio{
			Month:         item.Month.Format(ais.GranularityMonth.Layout()),
			Commercial:    item.Commercial,
			NonCommercial: item.NonCommercial,
		})
	}
	return out, nil
}

// MonthlySummary reports this month's distinct vessels against all time.
// It never fails: on error the counts are zero and Error is set.
func (s *Service) MonthlySummary(ctx context.Context) ais.MonthlySummary {
	clock := Clock(systemClock{})
	if s != nil && s.clock != nil {
		clock = s.clock
	}
	now := clock.Now().UTC()
	summary := ais.MonthlySummary{
		Month:     ais.MonthLabel(now),
		Timestamp: now.Format(time.RFC3339),
	}
	if s == nil || s.store == nil {
		summary.Error = ais.ErrNilStore.Error()
		return summary
	}

	from := ais.MonthStart(now)
	start := time.Now()
	counts, err := s.store.SummaryCounts(ctx, from, from.AddDate(0, 1, 0))
	metrics.ObserveQuery("monthly_summary", metrics.ResultOf(err), time.Since(start))
	if err != nil {
		summary.Error = err.Error()
		return summary
	}
	summary.ShipsThisMonth = counts.ShipsInRange
	summary.TotalShipsInDB = counts.TotalShips
	summary.TotalRecords = counts.TotalRecords
	return summary
}
