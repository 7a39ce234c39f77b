package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveBeforeInitIsSafe(t *testing.T) {
	ObserveQuery("latest_positions", ResultSuccess, time.Millisecond)
	ObserveIngestRun(ResultError, 10, 1, time.Second)
}

func TestObserveIngestRun(t *testing.T) {
	Init(nil, "", nil)

	before := testutil.ToFloat64(ingestRows)
	ObserveIngestRun(ResultPartial, 250, 3, 2*time.Second)
	if got := testutil.ToFloat64(ingestRows) - before; got != 250 {
		t.Fatalf("rows delta=%v want 250", got)
	}
	if got := testutil.ToFloat64(ingestRuns.WithLabelValues(ResultPartial)); got < 1 {
		t.Fatalf("expected partial run counted, got %v", got)
	}
}

func TestResultOf(t *testing.T) {
	if ResultOf(nil) != ResultSuccess || ResultOf(errors.New("boom")) != ResultError {
		t.Fatalf("unexpected result labels")
	}
}

func TestQuoteIdent(t *testing.T) {
	if got := quoteIdent("ais_reports"); got != `"ais_reports"` {
		t.Fatalf("quoteIdent=%s", got)
	}
	if got := quoteIdent(`a"b`); got != `"a""b"` {
		t.Fatalf("quoteIdent escaped=%s", got)
	}
}
