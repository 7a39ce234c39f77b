package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	ais "ais-insight/internal/ais/domain"
	"ais-insight/internal/ais/storetest"
)

var tableSeq atomic.Int64

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestRepository(t *testing.T, db *sql.DB, mode ais.ReplaceMode) *ReportRepository {
	t.Helper()
	table := fmt.Sprintf("ais_reports_it_%d_%d", time.Now().UnixNano()%1_000_000, tableSeq.Add(1))
	repo := NewReportRepository(db, WithTable(table), WithReplaceMode(mode))
	ctx := context.Background()
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(table))
		_, _ = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(table+"_staging"))
	})
	return repo
}

func TestReportRepository_Postgres(t *testing.T) {
	db := openDB(t)
	storetest.Run(t, func(t *testing.T, mode ais.ReplaceMode) ais.Store {
		return newTestRepository(t, db, mode)
	})
}

func TestSchemaExists_Postgres(t *testing.T) {
	db := openDB(t)
	repo := newTestRepository(t, db, ais.ReplaceDelete)
	exists, err := repo.SchemaExists(context.Background())
	if err != nil {
		t.Fatalf("schema exists: %v", err)
	}
	if !exists {
		t.Fatalf("expected table to exist")
	}

	missing := NewReportRepository(db, WithTable("ais_reports_missing_it"))
	exists, err = missing.SchemaExists(context.Background())
	if err != nil {
		t.Fatalf("schema exists: %v", err)
	}
	if exists {
		t.Fatalf("expected missing table")
	}
}

func TestEnsureDatabase_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	created, err := EnsureDatabase(context.Background(), dsn)
	if err != nil {
		t.Fatalf("ensure database: %v", err)
	}
	if created {
		t.Fatalf("database from PG_DSN should already exist")
	}
}
