package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	ais "ais-insight/internal/ais/domain"

	"github.com/jackc/pgx/v5"
)

func createTableSQL(table string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n\tid BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY", quote(table))
	for _, col := range ais.SourceColumns {
		fmt.Fprintf(&b, ",\n\t%s %s", col.Name, columnType(col.Kind))
	}
	b.WriteString(",\n\trec_ts TIMESTAMP,\n\tlat_cell DOUBLE PRECISION,\n\tlon_cell DOUBLE PRECISION\n)")
	return b.String()
}

func columnType(kind ais.ColumnKind) string {
	switch kind {
	case ais.KindInt:
		return "BIGINT"
	case ais.KindFloat:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func createIndexes(ctx context.Context, exec execer, table string) error {
	indexes := []string{
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (mmsi, rec_ts)`, quote("idx_"+table+"_mmsi_ts"), quote(table)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (rec_ts)`, quote("idx_"+table+"_ts"), quote(table)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (destination)`, quote("idx_"+table+"_destination"), quote(table)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (lat_cell, lon_cell)`, quote("idx_"+table+"_cell"), quote(table)),
	}
	for _, stmt := range indexes {
		if _, err := exec.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
