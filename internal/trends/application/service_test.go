package application

import (
	"context"
	"errors"
	"testing"
	"time"

	ais "ais-insight/internal/ais/domain"
	"ais-insight/internal/ais/infrastructure/memory"
	"ais-insight/internal/ais/storetest"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func typed(mmsi int64, recTime, shipType string) ais.Report {
	r := storetest.Report(mmsi, recTime, 10, 10)
	if shipType != "" {
		r.ShipType = &shipType
	}
	return r
}

func newTestService(t *testing.T, reports ...ais.Report) *Service {
	t.Helper()
	store := memory.NewRepository()
	storetest.Load(t, store, reports...)
	svc, err := NewService(store, WithClock(fixedClock{now: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestShipsPerDayAndHour(t *testing.T) {
	svc := newTestService(t,
		typed(2345678, "2024-03-01 10:05:00", ""),
		typed(2345678, "2024-03-01 10:45:00", ""),
		typed(3456789, "2024-03-01 11:00:00", ""),
		typed(3456789, "2024-03-02 00:00:00", ""),
		typed(4567890, "not a time", ""),
	)
	ctx := context.Background()

	days, err := svc.ShipsPerDay(ctx)
	if err != nil {
		t.Fatalf("ships per day: %v", err)
	}
	if len(days) != 2 || days[0].Day != "2024-03-01" || days[0].Ships != 2 || days[1].Ships != 1 {
		t.Fatalf("unexpected days: %+v", days)
	}

	hours, err := svc.ShipsPerHour(ctx)
	if err != nil {
		t.Fatalf("ships per hour: %v", err)
	}
	if len(hours) != 3 || hours[0].Hour != "2024-03-01 10:00:00" || hours[0].Ships != 1 {
		t.Fatalf("unexpected hours: %+v", hours)
	}
}

func TestAvgSpeedPerDayOmitsDaysWithoutSpeed(t *testing.T) {
	fast := typed(2345678, "2024-03-01 10:00:00", "")
	slow := typed(3456789, "2024-03-01 12:00:00", "")
	sogFast, sogSlow := 12.0, 6.0
	fast.SpeedOverGround, slow.SpeedOverGround = &sogFast, &sogSlow
	svc := newTestService(t, fast, slow, typed(4567890, "2024-03-02 10:00:00", ""))

	days, err := svc.AvgSpeedPerDay(context.Background())
	if err != nil {
		t.Fatalf("avg speed: %v", err)
	}
	if len(days) != 1 || days[0].AvgSpeed != 9 {
		t.Fatalf("unexpected speeds: %+v", days)
	}
}

func TestCommercialRatioExcludesNullTypes(t *testing.T) {
	svc := newTestService(t,
		typed(2345678, "2024-03-01 10:00:00", "Cargo"),
		typed(3456789, "2024-03-02 10:00:00", "Fishing"),
		typed(4567890, "2024-03-03 10:00:00", "Tanker"),
		typed(5678901, "2024-03-04 10:00:00", ""),
	)
	ratios, err := svc.CommercialRatio(context.Background())
	if err != nil {
		t.Fatalf("ratio: %v", err)
	}
	if len(ratios) != 1 {
		t.Fatalf("expected one month, got %+v", ratios)
	}
	if ratios[0].Month != "2024-03-01 00:00:00" || ratios[0].Commercial != 2 || ratios[0].NonCommercial != 1 {
		t.Fatalf("unexpected ratio: %+v", ratios[0])
	}
}

func TestCommercialRatioUsesConfiguredClassification(t *testing.T) {
	store := memory.NewRepository()
	storetest.Load(t, store,
		typed(2345678, "2024-03-01 10:00:00", "Cargo"),
		typed(3456789, "2024-03-02 10:00:00", "Fishing"),
	)
	svc, err := NewService(store, WithClassification(ais.ShipClassification{Version: "v2", Commercial: []string{"Fishing"}}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ratios, err := svc.CommercialRatio(context.Background())
	if err != nil {
		t.Fatalf("ratio: %v", err)
	}
	if ratios[0].Commercial != 1 || ratios[0].NonCommercial != 1 {
		t.Fatalf("unexpected ratio: %+v", ratios[0])
	}
	if svc.Classification().Version != "v2" {
		t.Fatalf("classification not applied")
	}
}

func TestNewServiceRejectsEmptyClassification(t *testing.T) {
	_, err := NewService(memory.NewRepository(), WithClassification(ais.ShipClassification{Version: "v0"}))
	if !errors.Is(err, ais.ErrEmptyClassification) {
		t.Fatalf("expected ErrEmptyClassification, got %v", err)
	}
}

func TestShipTypesAtDestinationRequiresDestination(t *testing.T) {
	svc, _ := NewService(failingTrendStore{})
	if _, err := svc.ShipTypesAtDestination(context.Background(), "  "); !errors.Is(err, ErrDestinationRequired) {
		t.Fatalf("expected ErrDestinationRequired, got %v", err)
	}
}

func TestShipTypeTrendsAndSeasonality(t *testing.T) {
	svc := newTestService(t,
		typed(2345678, "2023-06-01 10:00:00", "Fishing"),
		typed(3456789, "2024-06-10 10:00:00", "Fishing"),
		typed(2345678, "2024-06-11 10:00:00", "Fishing"),
		typed(4567890, "2024-07-01 10:00:00", ""),
	)
	ctx := context.Background()

	trends, err := svc.ShipTypeTrends(ctx)
	if err != nil {
		t.Fatalf("trends: %v", err)
	}
	if len(trends) != 3 || trends[2].ShipType != ais.UnknownText || trends[1].Count != 2 {
		t.Fatalf("unexpected trends: %+v", trends)
	}

	season, err := svc.FishingSeasonality(ctx)
	if err != nil {
		t.Fatalf("seasonality: %v", err)
	}
	if len(season) != 1 || season[0].Month != 6 || season[0].Count != 2 {
		t.Fatalf("unexpected seasonality: %+v", season)
	}
}

func TestMonthlySummary(t *testing.T) {
	svc := newTestService(t,
		typed(2345678, "2024-03-01 00:00:00", ""),
		typed(3456789, "2024-03-31 23:59:59", ""),
		typed(3456789, "2024-02-10 10:00:00", ""),
		typed(4567890, "2024-04-01 00:00:00", ""),
		typed(5678901, "", ""),
	)
	summary := svc.MonthlySummary(context.Background())
	if summary.Error != "" {
		t.Fatalf("unexpected error: %s", summary.Error)
	}
	if summary.ShipsThisMonth != 2 || summary.TotalShipsInDB != 3 || summary.TotalRecords != 4 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Month != "March 2024" || summary.Timestamp != "2024-03-15T09:00:00Z" {
		t.Fatalf("unexpected labels: %+v", summary)
	}
}

func TestMonthlySummaryEmptyStore(t *testing.T) {
	svc := newTestService(t)
	summary := svc.MonthlySummary(context.Background())
	if summary.Error != "" || summary.ShipsThisMonth != 0 || summary.TotalShipsInDB != 0 || summary.TotalRecords != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

type failingTrendStore struct {
	ais.TrendQuery
}

func (failingTrendStore) SummaryCounts(ctx context.Context, from, to time.Time) (ais.SummaryCounts, error) {
	return ais.SummaryCounts{}, errors.New("connection refused")
}

func (failingTrendStore) ShipTypesAtDestination(ctx context.Context, destination string) ([]ais.ShipTypeCount, error) {
	panic("store must not be queried")
}

func TestMonthlySummaryNeverFails(t *testing.T) {
	svc, err := NewService(failingTrendStore{}, WithClock(fixedClock{now: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	summary := svc.MonthlySummary(context.Background())
	if summary.Error != "connection refused" || summary.ShipsThisMonth != 0 || summary.Month != "October 2026" {
		t.Fatalf("unexpected fallback: %+v", summary)
	}
}
