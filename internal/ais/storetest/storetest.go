// Package storetest is a behaviour suite every ais.Store backend runs.
package storetest

import (
	"context"
	"testing"
	"time"

	ais "ais-insight/internal/ais/domain"
)

// Factory returns an empty store with its schema in place.
type Factory func(t *testing.T, mode ais.ReplaceMode) ais.Store

// Run executes the suite against stores built by factory.
func Run(t *testing.T, factory Factory) {
	t.Helper()
	t.Run("latest positions", func(t *testing.T) { testLatestPositions(t, factory(t, ais.ReplaceDelete)) })
	t.Run("latest drops vessels without a current fix", func(t *testing.T) { testLatestNoFix(t, factory(t, ais.ReplaceDelete)) })
	t.Run("history", func(t *testing.T) { testHistory(t, factory(t, ais.ReplaceDelete)) })
	t.Run("heatmap", func(t *testing.T) { testHeatmap(t, factory(t, ais.ReplaceDelete)) })
	t.Run("trends", func(t *testing.T) { testTrends(t, factory(t, ais.ReplaceDelete)) })
	t.Run("ship types", func(t *testing.T) { testShipTypes(t, factory(t, ais.ReplaceDelete)) })
	t.Run("summary", func(t *testing.T) { testSummary(t, factory(t, ais.ReplaceDelete)) })
	t.Run("delete replace", func(t *testing.T) { testDeleteReplace(t, factory(t, ais.ReplaceDelete)) })
	t.Run("shadow replace", func(t *testing.T) { testShadowReplace(t, factory(t, ais.ReplaceShadow)) })
}

// Report builds a normalized report.
func Report(mmsi int64, recTime string, lat, lon float64) ais.Report {
	r := ais.Report{MMSI: &mmsi, RecTime: &recTime, Latitude: &lat, Longitude: &lon}
	r.Normalize()
	return r
}

// Load replaces the store contents with reports.
func Load(t *testing.T, store ais.Store, reports ...ais.Report) {
	t.Helper()
	ctx := context.Background()
	loader, err := store.BeginReplace(ctx)
	if err != nil {
		t.Fatalf("begin replace: %v", err)
	}
	if err := loader.Append(ctx, reports); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := loader.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func ptr[T any](v T) *T { return &v }

func testLatestPositions(t *testing.T, store ais.Store) {
	Load(t, store,
		Report(2345678, "2024-01-01 10:00:00", 10, 20),
		Report(2345678, "2024-01-01 12:00:00", 11, 21),
		Report(2345678, "2024-01-01 11:00:00", 12, 22),
		Report(3456789, "2024-01-01 09:00:00", 30, 40),
		Report(3456789, "2024-01-01 09:00:00", 31, 41),
		Report(234567, "2024-01-02 00:00:00", 1, 1),
		Report(23456789, "2024-01-02 00:00:00", 1, 1),
		Report(4567890, "2024-01-03 00:00:00", 0, 0),
		Report(5678901, "2024-01-03 00:00:00", 91, 1),
	)

	got, err := store.LatestPositions(context.Background(), 100)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 vessels, got %d", len(got))
	}
	if *got[0].MMSI != 2345678 || *got[0].Latitude != 11 {
		t.Fatalf("unexpected first row: mmsi=%d lat=%v", *got[0].MMSI, *got[0].Latitude)
	}
	if *got[1].MMSI != 3456789 || *got[1].Latitude != 31 {
		t.Fatalf("tie should resolve to the later row: mmsi=%d lat=%v", *got[1].MMSI, *got[1].Latitude)
	}
	if got[0].RecordedAt == nil {
		t.Fatalf("expected normalized report")
	}

	limited, err := store.LatestPositions(context.Background(), 1)
	if err != nil {
		t.Fatalf("latest limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit not applied: %d", len(limited))
	}
}

func testLatestNoFix(t *testing.T, store ais.Store) {
	Load(t, store,
		Report(2345678, "2024-01-01 10:00:00", 10, 20),
		Report(2345678, "2024-01-02 10:00:00", 0, 0),
		Report(3456789, "2024-01-01 08:00:00", 30, 40),
		Report(3456789, "2024-01-02 08:00:00", 95, 40),
		Report(4567890, "2024-01-01 06:00:00", 0, 0),
		Report(4567890, "2024-01-02 06:00:00", 0, 5),
	)

	got, err := store.LatestPositions(context.Background(), 100)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 vessels, got %d", len(got))
	}
	// 4567890's newest report has a real fix on the equator.
	if *got[0].MMSI != 4567890 || *got[0].Longitude != 5 {
		t.Fatalf("unexpected first row: mmsi=%d lon=%v", *got[0].MMSI, *got[0].Longitude)
	}
	// 3456789's out-of-range report never competes, so the older fix wins.
	if *got[1].MMSI != 3456789 || *got[1].Latitude != 30 {
		t.Fatalf("unexpected second row: mmsi=%d lat=%v", *got[1].MMSI, *got[1].Latitude)
	}
	for _, report := range got {
		if *report.MMSI == 2345678 {
			t.Fatalf("vessel whose newest report is (0,0) must be omitted")
		}
	}
}

func testHistory(t *testing.T, store ais.Store) {
	Load(t, store,
		Report(123, "2024-01-01 10:00:00", 0, 0),
		Report(123, "2024-01-01 12:00:00", 95, 0),
		Report(123, "garbage", 1, 1),
		Report(456, "2024-01-01 12:00:00", 1, 1),
	)
	got, err := store.History(context.Background(), 123, 100)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	if *got[0].RecTime != "2024-01-01 12:00:00" || *got[1].RecTime != "2024-01-01 10:00:00" {
		t.Fatalf("unexpected order: %s, %s", *got[0].RecTime, *got[1].RecTime)
	}

	capped, err := store.History(context.Background(), 123, 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(capped) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(capped))
	}
}

func testHeatmap(t *testing.T, store ais.Store) {
	slow := Report(2345678, "2024-01-01 10:00:00", 18.944, 72.836)
	slow.SpeedOverGround = ptr(4.0)
	fast := Report(3456789, "2024-01-01 11:00:00", 18.9401, 72.8352)
	fast.SpeedOverGround = ptr(10.0)
	missing := ais.Report{MMSI: ptr(int64(2345678)), Latitude: ptr(5.0)}
	missing.Normalize()
	Load(t, store, slow, fast, missing, Report(4567890, "2024-01-01 10:00:00", 0, 0))

	density, err := store.DensityCells(context.Background())
	if err != nil {
		t.Fatalf("density: %v", err)
	}
	if len(density) != 2 {
		t.Fatalf("expected 2 cells, got %+v", density)
	}
	if density[0].Lat != 0 || density[0].Lon != 0 || density[0].Intensity != 1 {
		t.Fatalf("unexpected sentinel cell: %+v", density[0])
	}
	if density[1].Lat != 18.94 || density[1].Lon != 72.84 || density[1].Intensity != 2 {
		t.Fatalf("unexpected merged cell: %+v", density[1])
	}

	speed, err := store.SpeedCells(context.Background())
	if err != nil {
		t.Fatalf("speed: %v", err)
	}
	if len(speed) != 1 || speed[0].Intensity != 7 {
		t.Fatalf("unexpected speed cells: %+v", speed)
	}
}

func testTrends(t *testing.T, store ais.Store) {
	a := Report(2345678, "2024-01-01 10:15:00", 1, 1)
	a.SpeedOverGround = ptr(10.0)
	b := Report(2345678, "2024-01-01 10:45:00", 1, 1)
	b.SpeedOverGround = ptr(20.0)
	c := Report(3456789, "2024-01-01 11:05:00", 1, 1)
	d := Report(3456789, "2024-01-02 08:00:00", 1, 1)
	d.SpeedOverGround = ptr(6.0)
	d.Destination = ptr("ROTTERDAM")
	bad := Report(4567890, "not a time", 1, 1)
	bad.SpeedOverGround = ptr(100.0)
	bad.Destination = ptr("ROTTERDAM")
	e := Report(4567890, "2024-01-02 09:00:00", 1, 1)
	e.Destination = ptr("ANTWERP")
	Load(t, store, a, b, c, d, bad, e)
	ctx := context.Background()

	perDay, err := store.DistinctVesselsPerBucket(ctx, ais.GranularityDay)
	if err != nil {
		t.Fatalf("per day: %v", err)
	}
	if len(perDay) != 2 || perDay[0].Value != 2 || perDay[1].Value != 2 {
		t.Fatalf("unexpected per day: %+v", perDay)
	}
	if !perDay[0].Bucket.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected bucket: %v", perDay[0].Bucket)
	}

	perHour, err := store.DistinctVesselsPerBucket(ctx, ais.GranularityHour)
	if err != nil {
		t.Fatalf("per hour: %v", err)
	}
	if len(perHour) != 4 || !perHour[1].Bucket.Equal(time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected per hour: %+v", perHour)
	}

	speedHour, err := store.AverageSpeedPerBucket(ctx, ais.GranularityHour)
	if err != nil {
		t.Fatalf("speed per hour: %v", err)
	}
	if len(speedHour) != 2 || speedHour[0].Value != 15 || speedHour[1].Value != 6 {
		t.Fatalf("unexpected speed per hour: %+v", speedHour)
	}

	arrivals, err := store.Arrivals(ctx)
	if err != nil {
		t.Fatalf("arrivals: %v", err)
	}
	want := []ais.DestinationCount{{Destination: "ROTTERDAM", Count: 2}, {Destination: "ANTWERP", Count: 1}}
	if len(arrivals) != len(want) || arrivals[0] != want[0] || arrivals[1] != want[1] {
		t.Fatalf("arrivals=%+v want %+v", arrivals, want)
	}
}

func testShipTypes(t *testing.T, store ais.Store) {
	typed := func(mmsi int64, recTime, shipType string) ais.Report {
		r := Report(mmsi, recTime, 1, 1)
		if shipType != "" {
			r.ShipType = ptr(shipType)
		}
		r.Destination = ptr("MUMBAI")
		return r
	}
	Load(t, store,
		typed(1000001, "2024-01-10 00:00:00", "Cargo"),
		typed(1000001, "2024-01-11 00:00:00", "Cargo"),
		typed(1000002, "2024-01-12 00:00:00", "Fishing"),
		typed(1000003, "2024-01-13 00:00:00", "Tanker"),
		typed(1000004, "2024-01-14 00:00:00", ""),
		typed(1000005, "2023-01-20 00:00:00", "Fishing"),
		typed(1000006, "2024-03-02 00:00:00", "Fishing"),
	)
	ctx := context.Background()

	ratio, err := store.CommercialRatio(ctx, ais.DefaultClassification())
	if err != nil {
		t.Fatalf("ratio: %v", err)
	}
	if len(ratio) != 3 {
		t.Fatalf("expected 3 months, got %+v", ratio)
	}
	jan := ratio[1]
	if !jan.Month.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) || jan.Commercial != 2 || jan.NonCommercial != 1 {
		t.Fatalf("unexpected january ratio: %+v", jan)
	}

	perMonth, err := store.ShipTypesPerMonth(ctx)
	if err != nil {
		t.Fatalf("types per month: %v", err)
	}
	if len(perMonth) != 6 {
		t.Fatalf("expected 6 month/type rows, got %+v", perMonth)
	}
	if perMonth[1].ShipType != "Cargo" || perMonth[4].ShipType != ais.UnknownText {
		t.Fatalf("unexpected month/type order: %+v", perMonth)
	}

	atDest, err := store.ShipTypesAtDestination(ctx, "MUMBAI")
	if err != nil {
		t.Fatalf("at destination: %v", err)
	}
	if len(atDest) != 4 || atDest[0].ShipType != "Fishing" || atDest[0].Count != 3 {
		t.Fatalf("unexpected destination split: %+v", atDest)
	}

	seasonality, err := store.VesselsPerCalendarMonth(ctx, ais.ShipTypeFishing)
	if err != nil {
		t.Fatalf("seasonality: %v", err)
	}
	if len(seasonality) != 2 || seasonality[0].Month != 1 || seasonality[0].Count != 2 || seasonality[1].Month != 3 {
		t.Fatalf("unexpected seasonality: %+v", seasonality)
	}
}

func testSummary(t *testing.T, store ais.Store) {
	ctx := context.Background()
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	empty, err := store.SummaryCounts(ctx, from, to)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if empty != (ais.SummaryCounts{}) {
		t.Fatalf("expected zero summary, got %+v", empty)
	}

	Load(t, store,
		Report(1000001, "2024-06-01 00:00:00", 1, 1),
		Report(1000001, "2024-06-15 00:00:00", 1, 1),
		Report(1000002, "2024-07-01 00:00:00", 1, 1),
		Report(1000003, "2024-05-31 23:59:59", 1, 1),
		Report(1000004, "bad", 1, 1),
	)
	got, err := store.SummaryCounts(ctx, from, to)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	want := ais.SummaryCounts{ShipsInRange: 1, TotalShips: 3, TotalRecords: 4}
	if got != want {
		t.Fatalf("summary=%+v want %+v", got, want)
	}
}

func testDeleteReplace(t *testing.T, store ais.Store) {
	ctx := context.Background()
	Load(t, store, Report(1000001, "2024-01-01 00:00:00", 1, 1))
	Load(t, store, Report(1000002, "2024-01-01 00:00:00", 1, 1), Report(1000003, "2024-01-01 00:00:00", 1, 1))
	if count, err := store.CountReports(ctx); err != nil || count != 2 {
		t.Fatalf("reload should replace rows: count=%d err=%v", count, err)
	}

	loader, err := store.BeginReplace(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if count, _ := store.CountReports(ctx); count != 0 {
		t.Fatalf("delete mode clears up front, count=%d", count)
	}
	if err := loader.Append(ctx, []ais.Report{Report(1000004, "2024-01-01 00:00:00", 1, 1)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := loader.Abort(ctx); err != nil {
		t.Fatalf("abort: %v", err)
	}
	if count, _ := store.CountReports(ctx); count != 1 {
		t.Fatalf("appended chunk survives abort, count=%d", count)
	}
}

func testShadowReplace(t *testing.T, store ais.Store) {
	ctx := context.Background()
	Load(t, store, Report(1000001, "2024-01-01 00:00:00", 1, 1))

	loader, err := store.BeginReplace(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := loader.Append(ctx, []ais.Report{Report(1000002, "2024-01-01 00:00:00", 1, 1)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if count, _ := store.CountReports(ctx); count != 1 {
		t.Fatalf("live rows untouched before commit, count=%d", count)
	}
	if err := loader.Abort(ctx); err != nil {
		t.Fatalf("abort: %v", err)
	}
	if count, _ := store.CountReports(ctx); count != 1 {
		t.Fatalf("abort keeps live rows, count=%d", count)
	}

	Load(t, store, Report(1000002, "2024-01-01 00:00:00", 1, 1), Report(1000003, "2024-01-01 00:00:00", 1, 1))
	if count, _ := store.CountReports(ctx); count != 2 {
		t.Fatalf("commit swaps in staged rows, count=%d", count)
	}
	latest, err := store.LatestPositions(ctx, 10)
	if err != nil || len(latest) != 2 {
		t.Fatalf("queries after swap: rows=%d err=%v", len(latest), err)
	}
}
