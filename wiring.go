package main

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	ais "ais-insight/internal/ais/domain"
	"ais-insight/internal/ais/infrastructure/memory"
	"ais-insight/internal/ais/infrastructure/postgres"
	"ais-insight/internal/ais/infrastructure/sqlite"
	"ais-insight/internal/audit"
	"ais-insight/internal/config"
	"ais-insight/internal/eventing"
	heatmap "ais-insight/internal/heatmap/application"
	ingestion "ais-insight/internal/ingestion/application"
	"ais-insight/internal/ingestion/infrastructure/source"
	"ais-insight/internal/observability/metrics"
	trends "ais-insight/internal/trends/application"
	vessels "ais-insight/internal/vessels/application"
)

// app holds the wired services of one process.
type app struct {
	store    ais.Store
	vessels  *vessels.Service
	heatmaps *heatmap.Service
	trends   *trends.Service
	pipeline *ingestion.Pipeline
	audit    audit.Logger
	auditDB  *audit.Repository
	closers  []func() error
	logger   *zap.Logger
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
}

func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{logger: logger}

	store, db, closer, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	a.store = store
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	metrics.Init(db, cfg.ReportTable(), logger)

	a.audit = audit.NewZapLogger(logger)
	if cfg.Store.Backend == config.BackendPostgres {
		a.auditDB = audit.NewRepository(db)
		a.audit = a.auditDB
	}

	if a.vessels, err = vessels.NewService(store); err != nil {
		a.Close()
		return nil, err
	}
	if a.heatmaps, err = heatmap.NewService(store); err != nil {
		a.Close()
		return nil, err
	}
	if a.trends, err = trends.NewService(store, trends.WithClassification(cfg.Classification)); err != nil {
		a.Close()
		return nil, err
	}

	publisher, pubCloser, err := openPublisher(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if pubCloser != nil {
		a.closers = append(a.closers, pubCloser)
	}

	a.pipeline, err = ingestion.NewPipeline(store, openSource,
		ingestion.WithChunkSize(cfg.Ingest.ChunkSize),
		ingestion.WithPublisher(publisher),
		ingestion.WithLogger(logger),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// openStore returns the configured backend and, for SQL backends, its pool.
func openStore(cfg config.Config) (ais.Store, *sql.DB, func() error, error) {
	mode := cfg.ReplaceMode()
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		opts := []postgres.RepositoryOption{postgres.WithReplaceMode(mode)}
		if cfg.Store.Table != "" {
			opts = append(opts, postgres.WithTable(cfg.Store.Table))
		}
		repo, err := postgres.Open(cfg.Store.DSN, opts...)
		if err != nil {
			return nil, nil, nil, err
		}
		return repo, repo.DB(), repo.Close, nil
	case config.BackendSQLite:
		opts := []sqlite.Option{sqlite.WithReplaceMode(mode)}
		if cfg.Store.Table != "" {
			opts = append(opts, sqlite.WithTable(cfg.Store.Table))
		}
		store, err := sqlite.Open(cfg.Store.SQLitePath, opts...)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store.DB(), store.Close, nil
	case config.BackendMemory:
		return memory.NewRepository(memory.WithReplaceMode(mode)), nil, nil, nil
	default:
		return nil, nil, nil, errors.New("unknown store backend: " + cfg.Store.Backend)
	}
}

func openPublisher(cfg config.Config, logger *zap.Logger) (ingestion.EventPublisher, func() error, error) {
	if cfg.Events.NATSURL == "" {
		return eventing.NewLoggingPublisher(logger), nil, nil
	}
	publisher, err := eventing.ConnectNATS(cfg.Events.NATSURL, cfg.Events.Subject, logger)
	if err != nil {
		return nil, nil, err
	}
	return publisher, publisher.Close, nil
}

func openSource(path string) (ingestion.Source, error) {
	return source.Open(path)
}
