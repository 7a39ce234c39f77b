package memory

import (
	"context"
	"testing"

	ais "ais-insight/internal/ais/domain"
	"ais-insight/internal/ais/storetest"
)

func TestRepositoryBehaviour(t *testing.T) {
	storetest.Run(t, func(t *testing.T, mode ais.ReplaceMode) ais.Store {
		repo := NewRepository(WithReplaceMode(mode))
		if err := repo.EnsureSchema(context.Background()); err != nil {
			t.Fatalf("ensure schema: %v", err)
		}
		return repo
	})
}

func TestLatestPositionsResolvesBeforeDroppingSentinel(t *testing.T) {
	repo := NewRepository()
	storetest.Load(t, repo,
		storetest.Report(2345678, "2024-01-01 10:00:00", 10, 20),
		storetest.Report(2345678, "2024-01-01 12:00:00", 0, 0),
		storetest.Report(3456789, "2024-01-01 10:00:00", 30, 40),
		storetest.Report(3456789, "2024-01-01 12:00:00", 95, 40),
	)
	got, err := repo.LatestPositions(context.Background(), 10)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(got) != 1 || *got[0].MMSI != 3456789 || *got[0].Latitude != 30 {
		t.Fatalf("expected only the in-range fix of 3456789, got %+v", got)
	}
}

func TestLatestPositionsUntimedReportsSortLast(t *testing.T) {
	repo := NewRepository()
	storetest.Load(t, repo,
		storetest.Report(2345678, "garbage", 10, 20),
		storetest.Report(3456789, "2024-01-01 12:00:00", 5, 5),
		storetest.Report(3456789, "garbage", 6, 6),
	)
	got, err := repo.LatestPositions(context.Background(), 10)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(got) != 2 || *got[0].MMSI != 3456789 || *got[0].Latitude != 5 {
		t.Fatalf("timed report should win and sort first: %+v", got)
	}
}

func TestArrivalsTieOrdering(t *testing.T) {
	repo := NewRepository()
	mk := func(dest string) ais.Report {
		r := storetest.Report(2345678, "garbage", 1, 1)
		r.Destination = &dest
		return r
	}
	storetest.Load(t, repo, mk("MUMBAI"), mk("ANTWERP"), mk("ROTTERDAM"), mk("ROTTERDAM"))

	got, err := repo.Arrivals(context.Background())
	if err != nil {
		t.Fatalf("arrivals: %v", err)
	}
	want := []string{"ROTTERDAM", "ANTWERP", "MUMBAI"}
	if len(got) != len(want) {
		t.Fatalf("arrivals mismatch: %+v", got)
	}
	for i := range want {
		if got[i].Destination != want[i] {
			t.Fatalf("arrivals[%d]=%s want %s", i, got[i].Destination, want[i])
		}
	}
}

func TestInvalidGranularity(t *testing.T) {
	repo := NewRepository()
	storetest.Load(t, repo, storetest.Report(2345678, "2024-01-01 10:00:00", 1, 1))
	if _, err := repo.DistinctVesselsPerBucket(context.Background(), ais.Granularity("week")); err != ais.ErrInvalidGranularity {
		t.Fatalf("expected ErrInvalidGranularity, got %v", err)
	}
}

func TestFinishedLoaderRejectsAppend(t *testing.T) {
	repo := NewRepository()
	loader, err := repo.BeginReplace(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := loader.Commit(context.Background()); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := loader.Append(context.Background(), nil); err != ais.ErrLoaderClosed {
		t.Fatalf("expected ErrLoaderClosed, got %v", err)
	}
}
