// Package sqlite is the embedded single-node telemetry store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	ais "ais-insight/internal/ais/domain"

	_ "modernc.org/sqlite"
)

const (
	defaultTable = ais.DefaultTable

	// tsLayout is fixed width so text comparison orders like time.
	tsLayout = "2006-01-02 15:04:05.000000"
)

var errNilDB = errors.New("sqlite store: nil db")

// Store implements ais.Store on SQLite.
type Store struct {
	db    *sql.DB
	table string
	mode  ais.ReplaceMode
}

// Option configures the store.
type Option func(*Store)

// WithTable overrides the default table name. Names that are not plain
// identifiers are ignored.
func WithTable(table string) Option {
	return func(s *Store) {
		if ais.ValidTableName(table) {
			s.table = table
		}
	}
}

// WithReplaceMode selects delete-in-place or shadow replace.
func WithReplaceMode(mode ais.ReplaceMode) Option {
	return func(s *Store) {
		if mode != "" {
			s.mode = mode
		}
	}
}

// Open opens or creates the database file at path in WAL mode.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	return New(db, opts...), nil
}

// New wraps an open database.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, table: defaultTable, mode: ais.ReplaceDelete}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the pool for metrics.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureDatabase is a no-op: the file is created on first open.
func (s *Store) EnsureDatabase(ctx context.Context) error {
	_ = ctx
	if s == nil || s.db == nil {
		return errNilDB
	}
	return nil
}

// EnsureSchema creates the table and its indexes if absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errNilDB
	}
	if _, err := s.db.ExecContext(ctx, createTableSQL(s.table)); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return createIndexes(ctx, s.db, s.table)
}

// SchemaExists reports whether the table is present.
func (s *Store) SchemaExists(ctx context.Context) (bool, error) {
	if s == nil || s.db == nil {
		return false, errNilDB
	}
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, s.table).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountReports returns the number of stored rows.
func (s *Store) CountReports(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errNilDB
	}
	var count int64
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func createTableSQL(table string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n\tid INTEGER PRIMARY KEY AUTOINCREMENT", table)
	for _, col := range ais.SourceColumns {
		fmt.Fprintf(&b, ",\n\t%s %s", col.Name, columnType(col.Kind))
	}
	b.WriteString(",\n\trec_ts TEXT,\n\tlat_cell REAL,\n\tlon_cell REAL\n)")
	return b.String()
}

func columnType(kind ais.ColumnKind) string {
	switch kind {
	case ais.KindInt:
		return "INTEGER"
	case ais.KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

func createIndexes(ctx context.Context, exec execer, table string) error {
	indexes := []string{
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_mmsi_ts ON %[1]s(mmsi, rec_ts)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_ts ON %[1]s(rec_ts)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_destination ON %[1]s(destination)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_cell ON %[1]s(lat_cell, lon_cell)`, table),
	}
	for _, stmt := range indexes {
		if _, err := exec.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func formatTS(ts time.Time) string {
	return ts.UTC().Format(tsLayout)
}

func parseTS(value string) (time.Time, error) {
	return time.ParseInLocation(tsLayout, value, time.UTC)
}
