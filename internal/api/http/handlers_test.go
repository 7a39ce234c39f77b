package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	ais "ais-insight/internal/ais/domain"
	"ais-insight/internal/ais/infrastructure/memory"
	"ais-insight/internal/ais/storetest"
	"ais-insight/internal/audit"
	"ais-insight/internal/auth"
	heatmap "ais-insight/internal/heatmap/application"
	ingestion "ais-insight/internal/ingestion/application"
	trends "ais-insight/internal/trends/application"
	vessels "ais-insight/internal/vessels/application"
)

var testSecret = []byte("test-secret")

type stubIngestor struct {
	result ingestion.Result
	err    error
	path   string
}

func (s *stubIngestor) Run(ctx context.Context, path string) (ingestion.Result, error) {
	s.path = path
	return s.result, s.err
}

type brokenSummaryStore struct {
	*memory.Repository
}

func (brokenSummaryStore) SummaryCounts(ctx context.Context, from, to time.Time) (ais.SummaryCounts, error) {
	return ais.SummaryCounts{}, errors.New("relation does not exist")
}

func newTestRouter(t *testing.T, store ais.Store, ingestor Ingestor) http.Handler {
	t.Helper()
	vesselSvc, err := vessels.NewService(store)
	if err != nil {
		t.Fatalf("vessels: %v", err)
	}
	heatmapSvc, err := heatmap.NewService(store)
	if err != nil {
		t.Fatalf("heatmap: %v", err)
	}
	trendSvc, err := trends.NewService(store)
	if err != nil {
		t.Fatalf("trends: %v", err)
	}
	return NewRouter(Deps{
		Vessels:   vesselSvc,
		Heatmaps:  heatmapSvc,
		Trends:    trendSvc,
		Ingestor:  ingestor,
		JWTSecret: testSecret,
	})
}

func seededStore(t *testing.T) *memory.Repository {
	t.Helper()
	store := memory.NewRepository()
	cargo, fishing, dest := "Cargo", "Fishing", "MUMBAI"
	a := storetest.Report(2345678, "2024-03-01 10:00:00", 18.94, 72.83)
	a.ShipType, a.Destination = &cargo, &dest
	b := storetest.Report(3456789, "2024-03-02 11:00:00", 18.95, 72.84)
	b.ShipType, b.Destination = &fishing, &dest
	storetest.Load(t, store, a, b)
	return store
}

func do(t *testing.T, handler http.Handler, method, path, token string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestShipsEndpoints(t *testing.T) {
	router := newTestRouter(t, seededStore(t), nil)

	resp := do(t, router, http.MethodGet, "/ships/?limit=1", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var snapshots []ais.VesselSnapshot
	if err := json.Unmarshal(resp.Body.Bytes(), &snapshots); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snapshots) != 1 || snapshots[0].MMSI != "3456789" {
		t.Fatalf("unexpected snapshots: %+v", snapshots)
	}

	resp = do(t, router, http.MethodGet, "/ships/?limit=many", "", nil)
	snapshots = nil
	if err := json.Unmarshal(resp.Body.Bytes(), &snapshots); err != nil || resp.Code != http.StatusOK {
		t.Fatalf("bad limit should fall back to the default: %d %s", resp.Code, resp.Body.String())
	}
	if len(snapshots) != 2 {
		t.Fatalf("expected both vessels under the default limit, got %d", len(snapshots))
	}

	resp = do(t, router, http.MethodGet, "/ships/abc", "", nil)
	var body map[string]string
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if resp.Code != http.StatusBadRequest || !strings.HasPrefix(body["error"], ais.ErrInvalidMMSI.Error()) {
		t.Fatalf("expected 400 invalid mmsi, got %d %s", resp.Code, resp.Body.String())
	}

	resp = do(t, router, http.MethodGet, "/ships/9999999", "", nil)
	if resp.Code != http.StatusOK || strings.TrimSpace(resp.Body.String()) != "[]" {
		t.Fatalf("unknown vessel should give empty list, got %d %s", resp.Code, resp.Body.String())
	}
}

func TestShipTypeDestinationRequiresParam(t *testing.T) {
	router := newTestRouter(t, seededStore(t), nil)

	resp := do(t, router, http.MethodGet, "/ship-types/destinations", "", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	if body["error"] != "destination is required" {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}

	resp = do(t, router, http.MethodGet, "/ship-types/destinations?destination=MUMBAI", "", nil)
	var counts []ais.ShipTypeCount
	if err := json.Unmarshal(resp.Body.Bytes(), &counts); err != nil || len(counts) != 2 {
		t.Fatalf("unexpected counts: %s", resp.Body.String())
	}
}

func TestTrendEndpointKeys(t *testing.T) {
	router := newTestRouter(t, seededStore(t), nil)

	cases := map[string]string{
		"/trends/ships-per-day":           `"ships"`,
		"/trends/ships-per-hour":          `"hour"`,
		"/trends/arrivals":                `"arrivals"`,
		"/ship-types/trends":              `"ship_type"`,
		"/ship-types/fishing-seasonality": `"fishing_vessels"`,
		"/ship-types/ratio":               `"non_commercial"`,
		"/heatmaps/ships-active":          `"intensity"`,
	}
	for path, key := range cases {
		resp := do(t, router, http.MethodGet, path, "", nil)
		if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), key) {
			t.Fatalf("%s: code=%d body=%s", path, resp.Code, resp.Body.String())
		}
	}

	resp := do(t, router, http.MethodGet, "/heatmaps/average-speed", "", nil)
	if strings.TrimSpace(resp.Body.String()) != "[]" {
		t.Fatalf("cells without speed should be omitted: %s", resp.Body.String())
	}
}

func TestMonthlySummaryDegradesGracefully(t *testing.T) {
	router := newTestRouter(t, brokenSummaryStore{Repository: memory.NewRepository()}, nil)
	resp := do(t, router, http.MethodGet, "/ship-types/monthly-total", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var summary ais.MonthlySummary
	if err := json.Unmarshal(resp.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.Error == "" || summary.TotalRecords != 0 || summary.Month == "" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestIngestEndpoint(t *testing.T) {
	admin, err := auth.IssueJWT(testSecret, "ops", auth.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	viewer, _ := auth.IssueJWT(testSecret, "analyst", auth.RoleViewer, time.Hour)
	body := []byte(`{"path":"/data/ais.csv"}`)

	ingestor := &stubIngestor{result: ingestion.Result{Rows: 42, Chunks: 1}}
	router := newTestRouter(t, memory.NewRepository(), ingestor)

	if resp := do(t, router, http.MethodPost, "/api/v1/ingest", "", body); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if resp := do(t, router, http.MethodPost, "/api/v1/ingest", viewer, body); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
	if resp := do(t, router, http.MethodPost, "/api/v1/ingest", admin, []byte(`{}`)); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty path, got %d", resp.Code)
	}

	resp := do(t, router, http.MethodPost, "/api/v1/ingest", admin, body)
	if resp.Code != http.StatusOK || ingestor.path != "/data/ais.csv" {
		t.Fatalf("expected 200, got %d (path %q)", resp.Code, ingestor.path)
	}

	ingestor.err = ingestion.ErrIngestionInProgress
	if resp := do(t, router, http.MethodPost, "/api/v1/ingest", admin, body); resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}

	ingestor.err = ingestion.ErrChunkWriteFailed
	ingestor.result = ingestion.Result{Rows: 200000, FailedChunk: 3}
	resp = do(t, router, http.MethodPost, "/api/v1/ingest", admin, body)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	var failure ingestFailure
	if err := json.Unmarshal(resp.Body.Bytes(), &failure); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if failure.Error == "" || failure.Result.Rows != 200000 || failure.Result.FailedChunk != 3 {
		t.Fatalf("unexpected failure body: %s", resp.Body.String())
	}
}

func TestExports(t *testing.T) {
	viewer, _ := auth.IssueJWT(testSecret, "analyst", auth.RoleViewer, time.Hour)
	router := newTestRouter(t, seededStore(t), nil)

	if resp := do(t, router, http.MethodGet, "/api/v1/exports/trends.xlsx", "", nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}

	resp := do(t, router, http.MethodGet, "/api/v1/exports/trends.xlsx", viewer, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	book, err := excelize.OpenReader(bytes.NewReader(resp.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer book.Close()
	value, err := book.GetCellValue("arrivals", "A2")
	if err != nil || value != "MUMBAI" {
		t.Fatalf("arrivals sheet mismatch: %q err=%v", value, err)
	}

	resp = do(t, router, http.MethodGet, "/api/v1/exports/summary.pdf", viewer, nil)
	if resp.Code != http.StatusOK || !bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected pdf, got %d", resp.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t, memory.NewRepository(), nil)
	if resp := do(t, router, http.MethodGet, "/healthz", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("healthz: %d", resp.Code)
	}
	if resp := do(t, router, http.MethodGet, "/metrics", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("metrics: %d", resp.Code)
	}
}

type recordingAudit struct {
	entries []audit.Entry
}

func (r *recordingAudit) Log(ctx context.Context, entry audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func TestIngestIsAudited(t *testing.T) {
	admin, _ := auth.IssueJWT(testSecret, "ops", auth.RoleAdmin, time.Hour)
	recorder := &recordingAudit{}
	router := NewRouter(Deps{
		Ingestor:  &stubIngestor{err: errors.New("source missing")},
		Audit:     recorder,
		JWTSecret: testSecret,
	})

	do(t, router, http.MethodPost, "/api/v1/ingest", admin, []byte(`{"path":"/data/missing.csv"}`))
	if len(recorder.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(recorder.entries))
	}
	entry := recorder.entries[0]
	if entry.Actor != "ops" || entry.Role != string(auth.RoleAdmin) || entry.Action != audit.ActionDatasetIngest {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Outcome != ingestion.StatusFailed || entry.Resource != "/data/missing.csv" {
		t.Fatalf("unexpected outcome: %+v", entry)
	}
}
