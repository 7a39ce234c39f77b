package postgres

import (
	"strings"
	"testing"
)

func TestCreateTableSQLCoversSourceColumns(t *testing.T) {
	ddl := createTableSQL("ais_reports")
	for _, fragment := range []string{
		`CREATE TABLE IF NOT EXISTS "ais_reports"`,
		"id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY",
		"mmsi BIGINT",
		"sog DOUBLE PRECISION",
		"rec_time TEXT",
		"rec_ts TIMESTAMP",
		"lon_cell DOUBLE PRECISION",
	} {
		if !strings.Contains(ddl, fragment) {
			t.Fatalf("ddl missing %q:\n%s", fragment, ddl)
		}
	}
}

func TestQuoteEscapesIdentifiers(t *testing.T) {
	if got := quote(`weird"name`); got != `"weird""name"` {
		t.Fatalf("quote mismatch: %s", got)
	}
}
