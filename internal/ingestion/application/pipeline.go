// Package application runs bulk replaces of the telemetry table.
package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	ais "ais-insight/internal/ais/domain"
	"ais-insight/internal/observability/metrics"
)

// DefaultChunkSize is the number of rows written per batch.
const DefaultChunkSize = 100000

var (
	// ErrIngestionInProgress is returned when another run holds the pipeline.
	ErrIngestionInProgress = errors.New("ingestion: run already in progress")
	// ErrChunkWriteFailed wraps the storage error of a failed chunk.
	ErrChunkWriteFailed = errors.New("ingestion: chunk write failed")
	// ErrSourceRead wraps a read error from the tabular source.
	ErrSourceRead = errors.New("ingestion: source read failed")
	// ErrInvalidChunkSize is returned for non-positive chunk sizes.
	ErrInvalidChunkSize = errors.New("ingestion: invalid chunk size")
)

// Store is the part of the telemetry store the pipeline writes through.
type Store interface {
	ais.SchemaManager
	ais.ReplaceStrategy
}

// Source yields rows of one tabular file.
type Source interface {
	Columns() []string
	Ignored() []string
	Next(ctx context.Context, max int) ([]ais.Report, error)
	InvalidValues() int64
	Close() error
}

// SourceOpener opens a tabular file by path.
type SourceOpener func(path string) (Source, error)

// EventPublisher publishes dataset events.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Result describes one ingestion run. On failure it carries the rows
// written before the failing chunk.
type Result struct {
	RunID         string    `json:"run_id"`
	Source        string    `json:"source"`
	Columns       []string  `json:"columns"`
	Rows          int64     `json:"rows"`
	Chunks        int       `json:"chunks"`
	FailedChunk   int       `json:"failed_chunk,omitempty"`
	InvalidValues int64     `json:"invalid_values"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithChunkSize sets the rows per batch. Non-positive values keep the default.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithPublisher sets the dataset event publisher.
func WithPublisher(publisher EventPublisher) Option {
	return func(p *Pipeline) {
		p.publisher = publisher
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the clock used for run timestamps.
func WithClock(clock Clock) Option {
	return func(p *Pipeline) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// Pipeline replaces the store contents from a tabular source.
type Pipeline struct {
	mu        sync.Mutex
	store     Store
	open      SourceOpener
	publisher EventPublisher
	logger    *zap.Logger
	clock     Clock
	chunkSize int
}

// NewPipeline builds a pipeline.
func NewPipeline(store Store, open SourceOpener, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ais.ErrNilStore
	}
	if open == nil {
		return nil, errors.New("ingestion: nil source opener")
	}
	p := &Pipeline{
		store:     store,
		open:      open,
		logger:    zap.NewNop(),
		clock:     systemClock{},
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.chunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	return p, nil
}


// Run performs one full replace from path. Only one run executes at a time.
func (p *Pipeline) Run(ctx context.Context, path string) (Result, error) {
	if p == nil || p.store == nil {
		return Result{}, ais.ErrNilStore
	}
	if !p.mu.TryLock() {
		return Result{}, ErrIngestionInProgress
	}
	defer p.mu.Unlock()

	result := Result{
		RunID:     uuid.NewString(),
		Source:    path,
		StartedAt: p.clock.Now().UTC(),
	}
	logger := p.logger.With(zap.String("run_id", result.RunID), zap.String("source", path))
	logger.Info("ingestion started", zap.Int("chunk_size", p.chunkSize))

	started := time.Now()
	err := p.run(ctx, path, &result, logger)
	result.FinishedAt = p.clock.Now().UTC()

	status := runStatus(result, err)
	label := metrics.ResultSuccess
	switch status {
	case StatusPartial:
		label = metrics.ResultPartial
	case StatusFailed:
		label = metrics.ResultError
	}
	metrics.ObserveIngestRun(label, result.Rows, result.InvalidValues, time.Since(started))

	if err != nil {
		logger.Error("ingestion failed",
			zap.Error(err),
			zap.Int64("rows", result.Rows),
			zap.Int("failed_chunk", result.FailedChunk),
		)
	} else {
		logger.Info("ingestion finished",
			zap.Int64("rows", result.Rows),
			zap.Int("chunks", result.Chunks),
			zap.Int64("invalid_values", result.InvalidValues),
		)
	}

	p.publish(ctx, result, status, err, logger)
	return result, err
}

func (p *Pipeline) run(ctx context.Context, path string, result *Result, logger *zap.Logger) error {
	if err := p.store.EnsureDatabase(ctx); err != nil {
		return fmt.Errorf("ingestion: ensure database: %w", err)
	}
	exists, err := p.store.SchemaExists(ctx)
	if err != nil {
		return fmt.Errorf("ingestion: check schema: %w", err)
	}
	if exists {
		logger.Info("telemetry table already exists")
	} else {
		logger.Info("creating telemetry table")
	}
	if err := p.store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ingestion: ensure schema: %w", err)
	}

	src, err := p.open(path)
	if err != nil {
		return fmt.Errorf("ingestion: open source: %w", err)
	}
	defer src.Close()

	result.Columns = src.Columns()
	if ignored := src.Ignored(); len(ignored) > 0 {
		logger.Warn("ignoring unknown columns", zap.Strings("columns", ignored))
	}

	loader, err := p.store.BeginReplace(ctx)
	if err != nil {
		return fmt.Errorf("ingestion: begin replace: %w", err)
	}

	for chunk := 1; ; chunk++ {
		reports, err := src.Next(ctx, p.chunkSize)
		if errors.Is(err, io.EOF) {
			break
		}
		result.InvalidValues = src.InvalidValues()
		if err != nil {
			result.FailedChunk = chunk
			abort(ctx, loader, logger)
			return fmt.Errorf("%w: chunk %d: %w", ErrSourceRead, chunk, err)
		}
		if len(reports) == 0 {
			break
		}
		for i := range reports {
			reports[i].Normalize()
		}

		chunkStarted := time.Now()
		if err := loader.Append(ctx, reports); err != nil {
			metrics.ObserveIngestChunk(metrics.ResultError, time.Since(chunkStarted))
			result.FailedChunk = chunk
			abort(ctx, loader, logger)
			return fmt.Errorf("%w: chunk %d: %w", ErrChunkWriteFailed, chunk, err)
		}
		metrics.ObserveIngestChunk(metrics.ResultSuccess, time.Since(chunkStarted))

		result.Rows += int64(len(reports))
		result.Chunks = chunk
		logger.Info("chunk written",
			zap.Int("chunk", chunk),
			zap.Int("rows", len(reports)),
			zap.Int64("total_rows", result.Rows),
			zap.Strings("columns", result.Columns),
		)
	}
	result.InvalidValues = src.InvalidValues()

	if err := loader.Commit(ctx); err != nil {
		return fmt.Errorf("ingestion: commit: %w", err)
	}
	return nil
}

func abort(ctx context.Context, loader ais.Loader, logger *zap.Logger) {
	if err := loader.Abort(ctx); err != nil {
		logger.Warn("abort replace failed", zap.Error(err))
	}
}

func runStatus(result Result, err error) string {
	switch {
	case err == nil:
		return StatusSucceeded
	case result.Rows > 0:
		return StatusPartial
	default:
		return StatusFailed
	}
}

func (p *Pipeline) publish(ctx context.Context, result Result, status string, runErr error, logger *zap.Logger) {
	if p.publisher == nil {
		return
	}
	event := DatasetReplaced{
		RunID:      result.RunID,
		Source:     result.Source,
		Rows:       result.Rows,
		Chunks:     result.Chunks,
		Status:     status,
		OccurredAt: result.FinishedAt,
	}
	if runErr != nil {
		event.Error = runErr.Error()
	}
	if err := p.publisher.Publish(ctx, event); err != nil {
		logger.Warn("publish dataset event failed", zap.Error(err))
	}
}
