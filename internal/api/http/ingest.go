package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ais-insight/internal/audit"
	"ais-insight/internal/auth"
	"ais-insight/internal/eventing"
	ingestion "ais-insight/internal/ingestion/application"
)

type ingestRequest struct {
	Path string `json:"path"`
}

type ingestFailure struct {
	Error  string           `json:"error"`
	Result ingestion.Result `json:"result"`
}

// POST /api/v1/ingest
func (s *Server) ingest(w http.ResponseWriter, r *http.Request) {
	if s.ingestor == nil {
		notReady(w)
		return
	}
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json body"})
		return
	}
	req.Path = strings.TrimSpace(req.Path)
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "path is required"})
		return
	}

	caller, _ := auth.IdentityFromContext(r.Context())
	s.logger.Info("ingestion requested",
		zap.String("path", req.Path),
		zap.String("subject", caller.Subject),
	)
	ctx := eventing.WithCorrelationID(r.Context(), middleware.GetReqID(r.Context()))
	result, err := s.ingestor.Run(ctx, req.Path)
	s.auditIngest(r, req.Path, result, err)
	switch {
	case errors.Is(err, ingestion.ErrIngestionInProgress):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, ingestFailure{Error: err.Error(), Result: result})
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) auditIngest(r *http.Request, path string, result ingestion.Result, runErr error) {
	outcome := ingestion.StatusSucceeded
	switch {
	case errors.Is(runErr, ingestion.ErrIngestionInProgress):
		outcome = "rejected"
	case runErr != nil && result.Rows > 0:
		outcome = ingestion.StatusPartial
	case runErr != nil:
		outcome = ingestion.StatusFailed
	}
	metadata, _ := json.Marshal(map[string]any{
		"run_id": result.RunID,
		"rows":   result.Rows,
		"chunks": result.Chunks,
	})
	caller, _ := auth.IdentityFromContext(r.Context())
	entry := audit.Entry{
		Actor:     caller.Subject,
		Role:      string(caller.Role),
		Action:    audit.ActionDatasetIngest,
		Resource:  path,
		Outcome:   outcome,
		Metadata:  metadata,
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
	if err := s.audit.Log(r.Context(), entry); err != nil {
		s.logger.Warn("audit write failed", zap.Error(err))
	}
}
