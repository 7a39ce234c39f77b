package memory

import (
	"context"
	"sort"
	"sync"

	ais "ais-insight/internal/ais/domain"
)

// Repository is an in-memory telemetry store for demo/testing.
// It implements the full ais.Store contract.
type Repository struct {
	mu          sync.RWMutex
	reports     []ais.Report
	nextID      int64
	mode        ais.ReplaceMode
	schemaReady bool
}

// Option configures the repository.
type Option func(*Repository)

// WithReplaceMode selects delete-in-place or shadow replace.
func WithReplaceMode(mode ais.ReplaceMode) Option {
	return func(repo *Repository) {
		if mode != "" {
			repo.mode = mode
		}
	}
}

// NewRepository constructs an empty repository.
func NewRepository(opts ...Option) *Repository {
	repo := &Repository{mode: ais.ReplaceDelete}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// EnsureDatabase is a no-op for the in-memory store.
func (r *Repository) EnsureDatabase(ctx context.Context) error {
	_ = ctx
	return nil
}

// EnsureSchema marks the table as provisioned.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemaReady = true
	return nil
}

// SchemaExists reports whether EnsureSchema ran.
func (r *Repository) SchemaExists(ctx context.Context) (bool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemaReady, nil
}

// CountReports returns the number of stored reports.
func (r *Repository) CountReports(ctx context.Context) (int64, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.reports)), nil
}

// BeginReplace starts a full replace in the configured mode.
func (r *Repository) BeginReplace(ctx context.Context) (ais.Loader, error) {
	_ = ctx
	if r.mode == ais.ReplaceShadow {
		return &shadowLoader{repo: r}, nil
	}
	r.mu.Lock()
	r.reports = nil
	r.mu.Unlock()
	return &deleteLoader{repo: r}, nil
}

// snapshot returns the current rows. Rows are never mutated after insert,
// so sharing the backing array with readers is safe.
func (r *Repository) snapshot() []ais.Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reports[:len(r.reports):len(r.reports)]
}

func (r *Repository) assignIDs(reports []ais.Report) []ais.Report {
	out := make([]ais.Report, len(reports))
	for i, report := range reports {
		r.nextID++
		report.ID = r.nextID
		out[i] = report
	}
	return out
}

type deleteLoader struct {
	repo   *Repository
	closed bool
}

func (l *deleteLoader) Append(ctx context.Context, reports []ais.Report) error {
	_ = ctx
	if l.closed {
		return ais.ErrLoaderClosed
	}
	l.repo.mu.Lock()
	defer l.repo.mu.Unlock()
	rows := l.repo.assignIDs(reports)
	next := make([]ais.Report, 0, len(l.repo.reports)+len(rows))
	next = append(next, l.repo.reports...)
	l.repo.reports = append(next, rows...)
	return nil
}

func (l *deleteLoader) Commit(ctx context.Context) error {
	_ = ctx
	l.closed = true
	return nil
}

func (l *deleteLoader) Abort(ctx context.Context) error {
	_ = ctx
	l.closed = true
	return nil
}

type shadowLoader struct {
	repo   *Repository
	staged []ais.Report
	closed bool
}

func (l *shadowLoader) Append(ctx context.Context, reports []ais.Report) error {
	_ = ctx
	if l.closed {
		return ais.ErrLoaderClosed
	}
	l.repo.mu.Lock()
	defer l.repo.mu.Unlock()
	l.staged = append(l.staged, l.repo.assignIDs(reports)...)
	return nil
}

func (l *shadowLoader) Commit(ctx context.Context) error {
	_ = ctx
	if l.closed {
		return ais.ErrLoaderClosed
	}
	l.closed = true
	l.repo.mu.Lock()
	defer l.repo.mu.Unlock()
	l.repo.reports = l.staged
	l.staged = nil
	return nil
}

func (l *shadowLoader) Abort(ctx context.Context) error {
	_ = ctx
	l.closed = true
	l.staged = nil
	return nil
}

// LatestPositions resolves the newest report per identity-valid vessel among
// rows with in-range coordinates, then drops vessels whose newest report is
// the (0,0) sentinel.
func (r *Repository) LatestPositions(ctx context.Context, limit int) ([]ais.Report, error) {
	_ = ctx
	best := make(map[int64]ais.Report)
	for _, report := range r.snapshot() {
		if !report.IdentityValid() || !report.HasCoordinates() {
			continue
		}
		current, ok := best[*report.MMSI]
		if !ok || newer(report, current) {
			best[*report.MMSI] = report
		}
	}

	result := make([]ais.Report, 0, len(best))
	for _, report := range best {
		if !report.PositionValid() {
			continue
		}
		result = append(result, report)
	}
	sort.Slice(result, func(i, j int) bool {
		if c := compareRecorded(result[i], result[j]); c != 0 {
			return c > 0
		}
		return *result[i].MMSI < *result[j].MMSI
	})
	return truncate(result, limit), nil
}

// History returns the newest reports of one vessel without validity filters.
func (r *Repository) History(ctx context.Context, mmsi int64, limit int) ([]ais.Report, error) {
	_ = ctx
	result := make([]ais.Report, 0)
	for _, report := range r.snapshot() {
		if report.MMSI != nil && *report.MMSI == mmsi {
			result = append(result, report)
		}
	}
	sort.Slice(result, func(i, j int) bool { return newer(result[i], result[j]) })
	return truncate(result, limit), nil
}

// compareRecorded orders by recorded time with missing times lowest.
func compareRecorded(a, b ais.Report) int {
	switch {
	case a.RecordedAt == nil && b.RecordedAt == nil:
		return 0
	case b.RecordedAt == nil:
		return 1
	case a.RecordedAt == nil:
		return -1
	case a.RecordedAt.After(*b.RecordedAt):
		return 1
	case a.RecordedAt.Before(*b.RecordedAt):
		return -1
	default:
		return 0
	}
}

// newer is the latest-report order: recorded time, then surrogate id.
func newer(a, b ais.Report) bool {
	if c := compareRecorded(a, b); c != 0 {
		return c > 0
	}
	return a.ID > b.ID
}

func truncate(reports []ais.Report, limit int) []ais.Report {
	if limit >= 0 && len(reports) > limit {
		return reports[:limit]
	}
	return reports
}
