package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	ais "ais-insight/internal/ais/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

const defaultReportTable = ais.DefaultTable

var errNilDB = errors.New("ais repo: nil db")

// ReportRepository is the Postgres implementation of ais.Store.
type ReportRepository struct {
	db    *sql.DB
	dsn   string
	table string
	mode  ais.ReplaceMode
}

// RepositoryOption configures the repository.
type RepositoryOption func(*ReportRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *ReportRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// WithReplaceMode selects delete-in-place or shadow replace.
func WithReplaceMode(mode ais.ReplaceMode) RepositoryOption {
	return func(repo *ReportRepository) {
		if mode != "" {
			repo.mode = mode
		}
	}
}

// WithDSN lets EnsureDatabase create the target database.
func WithDSN(dsn string) RepositoryOption {
	return func(repo *ReportRepository) {
		repo.dsn = dsn
	}
}

// NewReportRepository constructs a repository with default table name.
func NewReportRepository(db *sql.DB, opts ...RepositoryOption) *ReportRepository {
	repo := &ReportRepository{db: db, table: defaultReportTable, mode: ais.ReplaceDelete}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Open prepares a pool for dsn. No connection is made until first use, so
// EnsureDatabase can still create the database.
func Open(dsn string, opts ...RepositoryOption) (*ReportRepository, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return NewReportRepository(db, append([]RepositoryOption{WithDSN(dsn)}, opts...)...), nil
}

// DB exposes the pool for metrics.
func (r *ReportRepository) DB() *sql.DB {
	if r == nil {
		return nil
	}
	return r.db
}

// Close closes the pool.
func (r *ReportRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// EnsureDatabase creates the target database when a DSN is known.
func (r *ReportRepository) EnsureDatabase(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errNilDB
	}
	if r.dsn == "" {
		return nil
	}
	_, err := EnsureDatabase(ctx, r.dsn)
	return err
}

// EnsureSchema creates the table and indexes if absent.
func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errNilDB
	}
	if _, err := r.db.ExecContext(ctx, createTableSQL(r.table)); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return createIndexes(ctx, r.db, r.table)
}

// SchemaExists reports whether the table is present.
func (r *ReportRepository) SchemaExists(ctx context.Context) (bool, error) {
	if r == nil || r.db == nil {
		return false, errNilDB
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, r.table).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CountReports returns the number of stored rows.
func (r *ReportRepository) CountReports(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errNilDB
	}
	var count int64
	if err := r.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quote(r.table))).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// BeginReplace starts a full replace in the configured mode.
func (r *ReportRepository) BeginReplace(ctx context.Context) (ais.Loader, error) {
	if r == nil || r.db == nil {
		return nil, errNilDB
	}
	if r.mode == ais.ReplaceShadow {
		staging := r.table + "_staging"
		if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quote(staging))); err != nil {
			return nil, fmt.Errorf("drop staging: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, createTableSQL(staging)); err != nil {
			return nil, fmt.Errorf("create staging: %w", err)
		}
		return &shadowLoader{repo: r, staging: staging}, nil
	}

	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, quote(r.table))); err != nil {
		return nil, fmt.Errorf("delete reports: %w", err)
	}
	return &deleteLoader{repo: r}, nil
}

// copyReports bulk-loads reports into table with COPY. A single COPY is
// atomic, so a failed chunk leaves no partial rows.
func (r *ReportRepository) copyReports(ctx context.Context, table string, reports []ais.Report) error {
	if len(reports) == 0 {
		return nil
	}
	columns := append(ais.SourceColumnNames(), "rec_ts", "lat_cell", "lon_cell")
	rows := make([][]any, len(reports))
	for i := range reports {
		rows[i] = rowValues(&reports[i])
	}

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.Raw(func(driverConn any) error {
		stdConn, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return errors.New("ais repo: driver is not pgx")
		}
		_, err := stdConn.Conn().CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
		return err
	})
}

func rowValues(report *ais.Report) []any {
	values := report.FieldValues()
	var recTS, latCell, lonCell any
	if report.RecordedAt != nil {
		recTS = report.RecordedAt.UTC()
	}
	if report.LatCell != nil && report.LonCell != nil {
		latCell, lonCell = *report.LatCell, *report.LonCell
	}
	return append(values, recTS, latCell, lonCell)
}

type deleteLoader struct {
	repo   *ReportRepository
	closed bool
}

func (l *deleteLoader) Append(ctx context.Context, reports []ais.Report) error {
	if l.closed {
		return ais.ErrLoaderClosed
	}
	return l.repo.copyReports(ctx, l.repo.table, reports)
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
	repo    *ReportRepository
	staging string
	closed  bool
}

func (l *shadowLoader) Append(ctx context.Context, reports []ais.Report) error {
	if l.closed {
		return ais.ErrLoaderClosed
	}
	return l.repo.copyReports(ctx, l.staging, reports)
}

// Commit swaps staging for the live table in one transaction.
func (l *shadowLoader) Commit(ctx context.Context) error {
	if l.closed {
		return ais.ErrLoaderClosed
	}
	l.closed = true

	tx, err := l.repo.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	statements := []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quote(l.repo.table)),
		fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`, quote(l.staging), quote(l.repo.table)),
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("swap staging: %w", err)
		}
	}
	if err := createIndexes(ctx, tx, l.repo.table); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (l *shadowLoader) Abort(ctx context.Context) error {
	if l.closed {
		return nil
	}
	l.closed = true
	_, err := l.repo.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quote(l.staging)))
	return err
}
