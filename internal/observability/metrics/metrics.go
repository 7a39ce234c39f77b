package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	metricPrefix = "ais_"

	resultSuccess = "success"
	resultError   = "error"
	resultPartial = "partial"
)

var (
	registerOnce sync.Once

	ingestRuns          *prometheus.CounterVec
	ingestLatency       *prometheus.HistogramVec
	ingestRows          prometheus.Counter
	ingestInvalidValues prometheus.Counter
	ingestChunkLatency  *prometheus.HistogramVec

	queryTotal   *prometheus.CounterVec
	queryLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	eventPublishTotal *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges. table names
// the telemetry table whose row count is exported.
func Init(db *sql.DB, table string, logger *zap.Logger) {
	registerOnce.Do(func() {
		ingestRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_runs_total",
				Help: "Total bulk ingestion runs by result",
			},
			[]string{"result"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Bulk ingestion run latency in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"result"},
		)
		ingestRows = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_rows_total",
				Help: "Total rows written by bulk ingestion",
			},
		)
		ingestInvalidValues = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_invalid_values_total",
				Help: "Numeric cells stored as null because they did not parse",
			},
		)
		ingestChunkLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_chunk_latency_seconds",
				Help:    "Chunk write latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		queryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "query_total",
				Help: "Total read queries by operation and result",
			},
			[]string{"operation", "result"},
		)
		queryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "query_latency_seconds",
				Help:    "Read query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		eventPublishTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "event_publish_total",
				Help: "Total dataset events published by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			ingestRuns,
			ingestLatency,
			ingestRows,
			ingestInvalidValues,
			ingestChunkLatency,
			queryTotal,
			queryLatency,
			exportTotal,
			exportLatency,
			eventPublishTotal,
		)

		if db != nil {
			registerDBMetrics(db, table, logger)
		}
	})
}

// ObserveIngestRun records a finished ingestion run.
func ObserveIngestRun(result string, rows, invalidValues int64, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestRuns != nil {
		ingestRuns.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
	if ingestRows != nil && rows > 0 {
		ingestRows.Add(float64(rows))
	}
	if ingestInvalidValues != nil && invalidValues > 0 {
		ingestInvalidValues.Add(float64(invalidValues))
	}
}

// ObserveIngestChunk records one chunk write.
func ObserveIngestChunk(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestChunkLatency != nil {
		ingestChunkLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveQuery records a read query by operation.
func ObserveQuery(operation, result string, duration time.Duration) {
	if operation == "" {
		operation = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if queryTotal != nil {
		queryTotal.WithLabelValues(operation, result).Inc()
	}
	if queryLatency != nil {
		queryLatency.WithLabelValues(operation, result).Observe(duration.Seconds())
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncEventPublish counts dataset event publications.
func IncEventPublish(result string) {
	if result == "" {
		result = resultSuccess
	}
	if eventPublishTotal != nil {
		eventPublishTotal.WithLabelValues(result).Inc()
	}
}

// ResultOf maps an error to a result label.
func ResultOf(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultPartial = resultPartial
)
