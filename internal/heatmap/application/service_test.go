package application

import (
	"context"
	"testing"

	ais "ais-insight/internal/ais/domain"
	"ais-insight/internal/ais/infrastructure/memory"
	"ais-insight/internal/ais/storetest"
)

func TestDensityBinsByRoundedCell(t *testing.T) {
	store := memory.NewRepository()
	storetest.Load(t, store,
		storetest.Report(2345678, "2024-01-01 10:00:00", 18.944, 72.834),
		storetest.Report(3456789, "2024-01-01 10:00:00", 18.936, 72.826),
		storetest.Report(4567890, "2024-01-01 10:00:00", 0, 0),
	)
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	points, err := svc.Density(context.Background())
	if err != nil {
		t.Fatalf("density: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 cells, got %+v", points)
	}
	if points[0].Lat != 0 || points[0].Lon != 0 || points[0].Intensity != 1 {
		t.Fatalf("sentinel cell should be emitted: %+v", points[0])
	}
	if points[1].Lat != 18.94 || points[1].Lon != 72.83 || points[1].Intensity != 2 {
		t.Fatalf("cell mismatch: %+v", points[1])
	}
}

func TestAverageSpeedSkipsCellsWithoutSpeed(t *testing.T) {
	withSpeed := func(mmsi int64, lat, lon, sog float64) ais.Report {
		r := storetest.Report(mmsi, "2024-01-01 10:00:00", lat, lon)
		r.SpeedOverGround = &sog
		return r
	}
	store := memory.NewRepository()
	storetest.Load(t, store,
		withSpeed(2345678, 10, 10, 4),
		withSpeed(3456789, 10, 10, 8),
		storetest.Report(4567890, "2024-01-01 10:00:00", 10, 10),
		storetest.Report(5678901, "2024-01-01 10:00:00", 20, 20),
	)
	svc, _ := NewService(store)

	points, err := svc.AverageSpeed(context.Background())
	if err != nil {
		t.Fatalf("average speed: %v", err)
	}
	if len(points) != 1 || points[0].Intensity != 6 {
		t.Fatalf("unexpected speed cells: %+v", points)
	}
}
