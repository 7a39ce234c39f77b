package audit

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerFillsEntry(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := NewZapLogger(zap.New(core))

	metadata := json.RawMessage(`{"path":"/data/ais.csv"}`)
	err := logger.Log(context.Background(), Entry{
		Actor:    "ops",
		Role:     "admin",
		Action:   ActionDatasetIngest,
		Resource: "/data/ais.csv",
		Outcome:  "succeeded",
		Metadata: metadata,
	})
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one entry, got %d", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if id, _ := fields["audit_id"].(string); !strings.HasPrefix(id, "audit-") {
		t.Fatalf("unexpected id: %v", fields["audit_id"])
	}
	if fields["payload_digest"] != DigestJSON(metadata) {
		t.Fatalf("digest mismatch: %v", fields["payload_digest"])
	}
	if fields["action"] != ActionDatasetIngest {
		t.Fatalf("action mismatch: %v", fields["action"])
	}
}

func TestDigestJSON(t *testing.T) {
	if DigestJSON(nil) != "" {
		t.Fatalf("empty payload should have no digest")
	}
	if len(DigestJSON([]byte(`{}`))) != 64 {
		t.Fatalf("expected hex sha256")
	}
}

func TestRepositoryRejectsNilDB(t *testing.T) {
	if NewRepository(nil) != nil {
		t.Fatalf("nil db should give nil repository")
	}
	var repo *Repository
	if err := repo.Log(context.Background(), Entry{}); err == nil {
		t.Fatalf("expected error")
	}
}
