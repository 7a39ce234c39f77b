// Package apihttp exposes the dashboard queries, ingestion and exports over HTTP.
package apihttp

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	ais "ais-insight/internal/ais/domain"
	"ais-insight/internal/audit"
	"ais-insight/internal/auth"
	ingestion "ais-insight/internal/ingestion/application"
	trends "ais-insight/internal/trends/application"
)

// VesselService serves latest positions and tracks.
type VesselService interface {
	LatestPositions(ctx context.Context, limit int) ([]ais.VesselSnapshot, error)
	History(ctx context.Context, mmsi int64) ([]ais.HistoryPoint, error)
}

// HeatmapService serves grid-cell aggregates.
type HeatmapService interface {
	Density(ctx context.Context) ([]ais.HeatmapPoint, error)
	AverageSpeed(ctx context.Context) ([]ais.HeatmapPoint, error)
}

// TrendService serves trend series and the monthly summary.
type TrendService interface {
	ShipsPerDay(ctx context.Context) ([]trends.DailyShips, error)
	ShipsPerHour(ctx context.Context) ([]trends.HourlyShips, error)
	AvgSpeedPerDay(ctx context.Context) ([]trends.DailySpeed, error)
	AvgSpeedPerHour(ctx context.Context) ([]trends.HourlySpeed, error)
	Arrivals(ctx context.Context) ([]ais.DestinationCount, error)
	ShipTypeTrends(ctx context.Context) ([]trends.ShipTypeMonth, error)
	ShipTypesAtDestination(ctx context.Context, destination string) ([]ais.ShipTypeCount, error)
	FishingSeasonality(ctx context.Context) ([]ais.MonthCount, error)
	CommercialRatio(ctx context.Context) ([]trends.MonthlyRatio, error)
	MonthlySummary(ctx context.Context) ais.MonthlySummary
}

// Ingestor runs a bulk replace.
type Ingestor interface {
	Run(ctx context.Context, path string) (ingestion.Result, error)
}

// Deps are the collaborators behind the router.
type Deps struct {
	Vessels   VesselService
	Heatmaps  HeatmapService
	Trends    TrendService
	Ingestor  Ingestor
	Audit     audit.Logger
	JWTSecret []byte
	Logger    *zap.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	vessels  VesselService
	heatmaps HeatmapService
	trends   TrendService
	ingestor Ingestor
	audit    audit.Logger
	logger   *zap.Logger
}

// NewServer builds the handler set.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	auditLog := deps.Audit
	if auditLog == nil {
		auditLog = audit.NewZapLogger(logger)
	}
	return &Server{
		vessels:  deps.Vessels,
		heatmaps: deps.Heatmaps,
		trends:   deps.Trends,
		ingestor: deps.Ingestor,
		audit:    auditLog,
		logger:   logger.Named("http"),
	}
}

// NewRouter wires every route behind request logging and auth.
func NewRouter(deps Deps) http.Handler {
	s := NewServer(deps)
	authz := auth.NewMiddleware(deps.JWTSecret, auth.NewPolicy([]string{"/metrics", "/healthz"}, nil))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(s.accessLog)
	router.Use(middleware.Recoverer)
	router.Use(authz.Wrap)

	router.Get("/healthz", s.health)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/ships", func(r chi.Router) {
		r.Get("/", s.latestPositions)
		r.Get("/{mmsi}", s.vesselHistory)
	})
	router.Route("/heatmaps", func(r chi.Router) {
		r.Get("/ships-active", s.densityHeatmap)
		r.Get("/average-speed", s.speedHeatmap)
	})
	router.Route("/trends", func(r chi.Router) {
		r.Get("/ships-per-day", s.shipsPerDay)
		r.Get("/ships-per-hour", s.shipsPerHour)
		r.Get("/avg-speed-per-day", s.avgSpeedPerDay)
		r.Get("/avg-speed-per-hour", s.avgSpeedPerHour)
		r.Get("/arrivals", s.arrivals)
	})
	router.Route("/ship-types", func(r chi.Router) {
		r.Get("/trends", s.shipTypeTrends)
		r.Get("/destinations", s.shipTypesAtDestination)
		r.Get("/fishing-seasonality", s.fishingSeasonality)
		r.Get("/ratio", s.commercialRatio)
		r.Get("/monthly-total", s.monthlySummary)
	})
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/ingest", s.ingest)
		r.Get("/exports/trends.xlsx", s.exportTrendsXLSX)
		r.Get("/exports/summary.pdf", s.exportSummaryPDF)
	})
	return router
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			s.logger.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
