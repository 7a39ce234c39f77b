package application

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"

	ais "ais-insight/internal/ais/domain"
	"ais-insight/internal/ais/infrastructure/memory"
)

type stubSource struct {
	rows    []ais.Report
	pos     int
	invalid int64
	block   chan struct{}
	entered chan struct{}
}

func newStubSource(n int) *stubSource {
	rows := make([]ais.Report, n)
	for i := range rows {
		mmsi := int64(1000000 + i)
		lat, lon := 10.0+float64(i)*0.01, 20.0
		recTime := "2024-01-01 00:00:" + strconv.Itoa(10+i%40)
		rows[i] = ais.Report{MMSI: &mmsi, Latitude: &lat, Longitude: &lon, RecTime: &recTime}
	}
	return &stubSource{rows: rows}
}

func (s *stubSource) Columns() []string { return []string{"mmsi", "latitude", "longitude", "rec_time"} }
func (s *stubSource) Ignored() []string { return nil }
func (s *stubSource) InvalidValues() int64 {
	return s.invalid
}
func (s *stubSource) Close() error { return nil }

func (s *stubSource) Next(ctx context.Context, max int) ([]ais.Report, error) {
	if s.block != nil {
		close(s.entered)
		<-s.block
		s.block = nil
	}
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	end := s.pos + max
	if end > len(s.rows) {
		end = len(s.rows)
	}
	out := append([]ais.Report(nil), s.rows[s.pos:end]...)
	s.pos = end
	return out, nil
}

func openerFor(rows int) SourceOpener {
	return func(path string) (Source, error) {
		return newStubSource(rows), nil
	}
}

// failingStore fails the Nth Append of every replace.
type failingStore struct {
	*memory.Repository
	failOn int
}

func (s *failingStore) BeginReplace(ctx context.Context) (ais.Loader, error) {
	loader, err := s.Repository.BeginReplace(ctx)
	if err != nil {
		return nil, err
	}
	return &failingLoader{Loader: loader, failOn: s.failOn}, nil
}

type failingLoader struct {
	ais.Loader
	failOn  int
	appends int
	aborted bool
}

func (l *failingLoader) Append(ctx context.Context, reports []ais.Report) error {
	l.appends++
	if l.appends == l.failOn {
		return errors.New("disk full")
	}
	return l.Loader.Append(ctx, reports)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []DatasetReplaced
}

func (p *recordingPublisher) Publish(ctx context.Context, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if evt, ok := event.(DatasetReplaced); ok {
		p.events = append(p.events, evt)
	}
	return nil
}

func TestPipelineWritesChunks(t *testing.T) {
	store := memory.NewRepository()
	publisher := &recordingPublisher{}
	pipeline, err := NewPipeline(store, openerFor(5), WithChunkSize(2), WithPublisher(publisher))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	result, err := pipeline.Run(context.Background(), "reports.csv")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Rows != 5 || result.Chunks != 3 || result.FailedChunk != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.RunID == "" || result.Source != "reports.csv" || len(result.Columns) != 4 {
		t.Fatalf("result metadata missing: %+v", result)
	}
	count, _ := store.CountReports(context.Background())
	if count != 5 {
		t.Fatalf("expected 5 stored rows, got %d", count)
	}
	if len(publisher.events) != 1 || publisher.events[0].Status != StatusSucceeded || publisher.events[0].Rows != 5 {
		t.Fatalf("unexpected events: %+v", publisher.events)
	}

	latest, err := store.LatestPositions(context.Background(), 10)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(latest) != 5 || latest[0].RecordedAt == nil || latest[0].LatCell == nil {
		t.Fatalf("rows were not normalized: %+v", latest)
	}
}

func TestPipelineRerunReplacesContents(t *testing.T) {
	store := memory.NewRepository()
	pipeline, err := NewPipeline(store, openerFor(7), WithChunkSize(3))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := pipeline.Run(context.Background(), "reports.csv"); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		count, _ := store.CountReports(context.Background())
		if count != 7 {
			t.Fatalf("run %d: expected 7 rows, got %d", i, count)
		}
	}
}

func TestPipelineChunkFailureKeepsPartialRows(t *testing.T) {
	store := &failingStore{Repository: memory.NewRepository(), failOn: 3}
	publisher := &recordingPublisher{}
	pipeline, err := NewPipeline(store, openerFor(50), WithChunkSize(10), WithPublisher(publisher))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	result, err := pipeline.Run(context.Background(), "reports.csv")
	if !errors.Is(err, ErrChunkWriteFailed) {
		t.Fatalf("expected ErrChunkWriteFailed, got %v", err)
	}
	if result.Rows != 20 || result.FailedChunk != 3 || result.Chunks != 2 {
		t.Fatalf("unexpected partial result: %+v", result)
	}
	count, _ := store.CountReports(context.Background())
	if count != 20 {
		t.Fatalf("delete mode should keep 20 rows, got %d", count)
	}
	if len(publisher.events) != 1 || publisher.events[0].Status != StatusPartial || publisher.events[0].Error == "" {
		t.Fatalf("unexpected events: %+v", publisher.events)
	}
}

func TestPipelineShadowFailureKeepsLiveTable(t *testing.T) {
	repo := memory.NewRepository(memory.WithReplaceMode(ais.ReplaceShadow))
	good, err := NewPipeline(repo, openerFor(4), WithChunkSize(2))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	if _, err := good.Run(context.Background(), "first.csv"); err != nil {
		t.Fatalf("first run: %v", err)
	}

	bad, err := NewPipeline(&failingStore{Repository: repo, failOn: 2}, openerFor(10), WithChunkSize(2))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	if _, err := bad.Run(context.Background(), "second.csv"); !errors.Is(err, ErrChunkWriteFailed) {
		t.Fatalf("expected ErrChunkWriteFailed, got %v", err)
	}
	count, _ := repo.CountReports(context.Background())
	if count != 4 {
		t.Fatalf("live table should be untouched, got %d rows", count)
	}
}

func TestPipelineRejectsConcurrentRun(t *testing.T) {
	src := newStubSource(1)
	src.block = make(chan struct{})
	src.entered = make(chan struct{})
	pipeline, err := NewPipeline(memory.NewRepository(), func(string) (Source, error) { return src, nil })
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := pipeline.Run(context.Background(), "reports.csv")
		done <- err
	}()
	<-src.entered

	if _, err := pipeline.Run(context.Background(), "reports.csv"); !errors.Is(err, ErrIngestionInProgress) {
		t.Fatalf("expected ErrIngestionInProgress, got %v", err)
	}
	close(src.block)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
}

func TestPipelineOpenFailureLeavesStore(t *testing.T) {
	store := memory.NewRepository()
	pipeline, _ := NewPipeline(store, openerFor(3))
	if _, err := pipeline.Run(context.Background(), "reports.csv"); err != nil {
		t.Fatalf("seed run: %v", err)
	}

	missing := errors.New("no such file")
	broken, _ := NewPipeline(store, func(string) (Source, error) { return nil, missing })
	if _, err := broken.Run(context.Background(), "missing.csv"); !errors.Is(err, missing) {
		t.Fatalf("expected open error, got %v", err)
	}
	count, _ := store.CountReports(context.Background())
	if count != 3 {
		t.Fatalf("store should keep previous rows, got %d", count)
	}
}

func TestNewPipelineValidates(t *testing.T) {
	if _, err := NewPipeline(nil, openerFor(1)); !errors.Is(err, ais.ErrNilStore) {
		t.Fatalf("expected ErrNilStore, got %v", err)
	}
	pipeline, err := NewPipeline(memory.NewRepository(), openerFor(1), WithChunkSize(-5))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	if pipeline.chunkSize != DefaultChunkSize {
		t.Fatalf("expected default chunk size, got %d", pipeline.chunkSize)
	}
}
