package sqlite

import (
	"context"
	"fmt"
	"strings"

	ais "ais-insight/internal/ais/domain"
)

// BeginReplace starts a full replace in the configured mode.
func (s *Store) BeginReplace(ctx context.Context) (ais.Loader, error) {
	if s == nil || s.db == nil {
		return nil, errNilDB
	}
	if s.mode == ais.ReplaceShadow {
		staging := s.table + "_staging"
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, staging)); err != nil {
			return nil, fmt.Errorf("drop staging: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, createTableSQL(staging)); err != nil {
			return nil, fmt.Errorf("create staging: %w", err)
		}
		return &shadowLoader{store: s, staging: staging}, nil
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table)); err != nil {
		return nil, fmt.Errorf("delete reports: %w", err)
	}
	return &deleteLoader{store: s}, nil
}

// insertChunk writes reports into table in one transaction.
func (s *Store) insertChunk(ctx context.Context, table string, reports []ais.Report) error {
	if len(reports) == 0 {
		return nil
	}
	columns := append(ais.SourceColumnNames(), "rec_ts", "lat_cell", "lon_cell")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, table, strings.Join(columns, ", "), placeholders)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range reports {
		if _, err := stmt.ExecContext(ctx, rowValues(&reports[i])...); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func rowValues(r *ais.Report) []any {
	values := r.FieldValues()
	var recTS, latCell, lonCell any
	if r.RecordedAt != nil {
		recTS = formatTS(*r.RecordedAt)
	}
	if r.LatCell != nil && r.LonCell != nil {
		latCell, lonCell = *r.LatCell, *r.LonCell
	}
	return append(values, recTS, latCell, lonCell)
}

type deleteLoader struct {
	store  *Store
	closed bool
}

func (l *deleteLoader) Append(ctx context.Context, reports []ais.Report) error {
	if l.closed {
		return ais.ErrLoaderClosed
	}
	return l.store.insertChunk(ctx, l.store.table, reports)
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
	store   *Store
	staging string
	closed  bool
}

func (l *shadowLoader) Append(ctx context.Context, reports []ais.Report) error {
	if l.closed {
		return ais.ErrLoaderClosed
	}
	return l.store.insertChunk(ctx, l.staging, reports)
}

// Commit swaps the staging table in for the live one.
func (l *shadowLoader) Commit(ctx context.Context) error {
	if l.closed {
		return ais.ErrLoaderClosed
	}
	l.closed = true

	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	statements := []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, l.store.table),
		fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`, l.staging, l.store.table),
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("swap staging: %w", err)
		}
	}
	if err := createIndexes(ctx, tx, l.store.table); err != nil {
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
	_, err := l.store.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, l.staging))
	return err
}
