package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	ais "ais-insight/internal/ais/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AIS_CONFIG", "DATABASE_URL", "PG_DSN", "AIS_STORE", "SQLITE_PATH", "HTTP_ADDR",
		"INGEST_CHUNK_SIZE", "INGEST_REPLACE_MODE", "AUTH_JWT_SECRET", "NATS_URL",
		"NATS_SUBJECT", "LOG_LEVEL", "LOG_FORMAT", "AIS_COMMERCIAL_TYPES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Backend != BackendPostgres || cfg.Ingest.ChunkSize != 100000 || cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ReplaceMode() != ais.ReplaceDelete || cfg.Classification.Version != "v1" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "aisd.yaml")
	content := `
store:
  backend: sqlite
  sqlite_path: /var/lib/ais/ais.db
ingest:
  chunk_size: 5000
  replace_mode: shadow
classification:
  version: v2
  commercial: [Cargo, Tanker]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("INGEST_CHUNK_SIZE", "250")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Backend != BackendSQLite || cfg.Store.SQLitePath != "/var/lib/ais/ais.db" {
		t.Fatalf("store mismatch: %+v", cfg.Store)
	}
	if cfg.Ingest.ChunkSize != 250 || cfg.ReplaceMode() != ais.ReplaceShadow {
		t.Fatalf("ingest mismatch: %+v", cfg.Ingest)
	}
	if cfg.Log.Format != "console" {
		t.Fatalf("log env override missing: %+v", cfg.Log)
	}
	if cfg.Classification.Version != "v2" || len(cfg.Classification.Commercial) != 2 {
		t.Fatalf("classification mismatch: %+v", cfg.Classification)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("AIS_STORE", "oracle")
	if _, err := Load(""); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	t.Setenv("AIS_STORE", BackendSQLite)
	if _, err := Load(""); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("sqlite without path should fail, got %v", err)
	}

	t.Setenv("AIS_STORE", BackendMemory)
	t.Setenv("INGEST_REPLACE_MODE", "truncate")
	if _, err := Load(""); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("bad replace mode should fail, got %v", err)
	}
}

func TestValidateRejectsUnsafeTable(t *testing.T) {
	cfg := Default()
	cfg.Store.Table = "ais_reports; DROP TABLE ais_reports"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for unsafe table, got %v", err)
	}

	cfg.Store.Table = "ais_2024"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("plain table name should validate: %v", err)
	}
	if got := cfg.ReportTable(); got != "ais_2024" {
		t.Fatalf("ReportTable=%s", got)
	}
	cfg.Store.Table = ""
	if got := cfg.ReportTable(); got != ais.DefaultTable {
		t.Fatalf("ReportTable default=%s", got)
	}
}

func TestEnvCommercialTypes(t *testing.T) {
	clearEnv(t)
	t.Setenv("AIS_STORE", BackendMemory)
	t.Setenv("AIS_COMMERCIAL_TYPES", "Cargo, Fishing ,")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Classification.Commercial) != 2 || cfg.Classification.Commercial[1] != "Fishing" {
		t.Fatalf("unexpected commercial types: %v", cfg.Classification.Commercial)
	}
}
