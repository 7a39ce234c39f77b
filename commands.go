package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apihttp "ais-insight/internal/api/http"
	"ais-insight/internal/auth"
	"ais-insight/internal/config"
	"ais-insight/internal/observability/logging"
)

var (
	configPath string
	tokenRole  string
	tokenTTL   time.Duration

	rootCmd = &cobra.Command{
		Use:           "aisd",
		Short:         "AIS vessel telemetry ingestion and analytics service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	loadCmd = &cobra.Command{
		Use:   "load [path]",
		Short: "Replace the stored dataset with a CSV or XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE:  runLoad,
	}

	schemaCmd = &cobra.Command{
		Use:   "schema",
		Short: "Create the database and report table if missing",
		Args:  cobra.NoArgs,
		RunE:  runSchema,
	}

	tokenCmd = &cobra.Command{
		Use:   "token [subject]",
		Short: "Issue an API token signed with the configured secret",
		Args:  cobra.ExactArgs(1),
		RunE:  runToken,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults to $AIS_CONFIG)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(auth.RoleAdmin), "role claim: viewer, operator or admin")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(serveCmd, loadCmd, schemaCmd, tokenCmd)
}

func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.store.EnsureDatabase(ctx); err != nil {
		return fmt.Errorf("ensure database: %w", err)
	}
	if err := app.store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if app.auditDB != nil {
		if err := app.auditDB.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure audit schema: %w", err)
		}
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET is empty; ingestion and export routes will reject every request")
	}

	server := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: apihttp.NewRouter(apihttp.Deps{
			Vessels:   app.vessels,
			Heatmaps:  app.heatmaps,
			Trends:    app.trends,
			Ingestor:  app.pipeline,
			Audit:     app.audit,
			JWTSecret: []byte(cfg.Auth.JWTSecret),
			Logger:    logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTP.Addr), zap.String("store", cfg.Store.Backend))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	result, runErr := app.pipeline.Run(ctx, args[0])
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	return runErr
}

func runSchema(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.store.EnsureDatabase(ctx); err != nil {
		return fmt.Errorf("ensure database: %w", err)
	}
	existed, err := app.store.SchemaExists(ctx)
	if err != nil {
		return fmt.Errorf("check schema: %w", err)
	}
	if err := app.store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if app.auditDB != nil {
		if err := app.auditDB.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure audit schema: %w", err)
		}
	}
	if existed {
		fmt.Fprintln(cmd.OutOrStdout(), "report table already present")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "report table created")
	}
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	token, err := auth.IssueJWT([]byte(cfg.Auth.JWTSecret), args[0], auth.Role(tokenRole), tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
