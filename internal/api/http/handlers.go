package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	ais "ais-insight/internal/ais/domain"
	trends "ais-insight/internal/trends/application"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) queryFailed(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("query failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "query failed"})
}

func notReady(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "server not ready"})
}

// orEmpty keeps empty results encoded as [] rather than null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// GET /ships/?limit=
func (s *Server) latestPositions(w http.ResponseWriter, r *http.Request) {
	if s.vessels == nil {
		notReady(w)
		return
	}
	// A missing or non-integer limit falls back to the service default.
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	snapshots, err := s.vessels.LatestPositions(r.Context(), limit)
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(snapshots))
}

// GET /ships/{mmsi}
func (s *Server) vesselHistory(w http.ResponseWriter, r *http.Request) {
	if s.vessels == nil {
		notReady(w)
		return
	}
	mmsi, err := ais.ParseMMSI(chi.URLParam(r, "mmsi"))
	if errors.Is(err, ais.ErrInvalidMMSI) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	points, err := s.vessels.History(r.Context(), mmsi)
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(points))
}

func (s *Server) densityHeatmap(w http.ResponseWriter, r *http.Request) {
	if s.heatmaps == nil {
		notReady(w)
		return
	}
	points, err := s.heatmaps.Density(r.Context())
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(points))
}

func (s *Server) speedHeatmap(w http.ResponseWriter, r *http.Request) {
	if s.heatmaps == nil {
		notReady(w)
		return
	}
	points, err := s.heatmaps.AverageSpeed(r.Context())
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(points))
}

func (s *Server) shipsPerDay(w http.ResponseWriter, r *http.Request) {
	if s.trends == nil {
		notReady(w)
		return
	}
	items, err := s.trends.ShipsPerDay(r.Context())
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(items))
}

func (s *Server) shipsPerHour(w http.ResponseWriter, r *http.Request) {
	if s.trends == nil {
		notReady(w)
		return
	}
	items, err := s.trends.ShipsPerHour(r.Context())
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(items))
}

func (s *Server) avgSpeedPerDay(w http.ResponseWriter, r *http.Request) {
	if s.trends == nil {
		notReady(w)
		return
	}
	items, err := s.trends.AvgSpeedPerDay(r.Context())
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(items))
}

func (s *Server) avgSpeedPerHour(w http.ResponseWriter, r *http.Request) {
	if s.trends == nil {
		notReady(w)
		return
	}
	items, err := s.trends.AvgSpeedPerHour(r.Context())
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(items))
}

func (s *Server) arrivals(w http.ResponseWriter, r *http.Request) {
	if s.trends == nil {
		notReady(w)
		return
	}
	items, err := s.trends.Arrivals(r.Context())
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(items))
}

func (s *Server) shipTypeTrends(w http.ResponseWriter, r *http.Request) {
	if s.trends == nil {
		notReady(w)
		return
	}
	items, err := s.trends.ShipTypeTrends(r.Context())
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(items))
}

// GET /ship-types/destinations?destination=
func (s *Server) shipTypesAtDestination(w http.ResponseWriter, r *http.Request) {
	if s.trends == nil {
		notReady(w)
		return
	}
	items, err := s.trends.ShipTypesAtDestination(r.Context(), r.URL.Query().Get("destination"))
	if errors.Is(err, trends.ErrDestinationRequired) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "destination is required"})
		return
	}
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(items))
}

func (s *Server) fishingSeasonality(w http.ResponseWriter, r *http.Request) {
	if s.trends == nil {
		notReady(w)
		return
	}
	items, err := s.trends.FishingSeasonality(r.Context())
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(items))
}

func (s *Server) commercialRatio(w http.ResponseWriter, r *http.Request) {
	if s.trends == nil {
		notReady(w)
		return
	}
	items, err := s.trends.CommercialRatio(r.Context())
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(items))
}

// monthlySummary always answers 200; failures travel in the error field.
func (s *Server) monthlySummary(w http.ResponseWriter, r *http.Request) {
	if s.trends == nil {
		notReady(w)
		return
	}
	summary := s.trends.MonthlySummary(r.Context())
	if summary.Error != "" {
		s.logger.Warn("monthly summary degraded", zap.String("error", summary.Error))
	}
	writeJSON(w, http.StatusOK, summary)
}
