// Package main provides the diagnosa API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kamilpajak/diagnosa/internal/api"
	"github.com/kamilpajak/diagnosa/internal/catalog"
	"github.com/kamilpajak/diagnosa/internal/config"
	"github.com/kamilpajak/diagnosa/internal/database"
	"github.com/kamilpajak/diagnosa/internal/logging"
	"github.com/kamilpajak/diagnosa/internal/narrative"
	"github.com/kamilpajak/diagnosa/pkg/engine"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath  = flag.String("config", getEnv("DIAGNOSA_CONFIG", ""), "Config file (YAML)")
		port        = flag.String("port", "", "Server port (overrides config and PORT)")
		migrateOnly = flag.Bool("migrate", false, "Run catalog migrations and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, *migrateOnly); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger, migrateOnly bool) error {
	ctx := context.Background()

	if migrateOnly {
		if cfg.Catalog.DatabaseURL == "" {
			return errors.New("-migrate needs a database (catalog.database_url or DATABASE_URL)")
		}
		logger.Info("running catalog migrations")
		if err := database.Migrate(cfg.Catalog.DatabaseURL); err != nil {
			return err
		}
		logger.Info("migrations complete")
		return nil
	}

	provider, closeProvider, err := cfg.OpenCatalog(ctx, logger)
	if err != nil {
		return err
	}
	defer closeProvider()

	// Fail fast on an unreadable catalog; lint issues are only logged since
	// the engine skips the offending entries.
	snapshot, err := catalog.Load(ctx, provider)
	if err != nil {
		return err
	}
	for _, issue := range catalog.Validate(snapshot) {
		logger.Warn("catalog issue", zap.String("code", issue.Code), zap.String("message", issue.Message))
	}

	rules, err := cfg.LoadRules()
	if err != nil {
		return err
	}

	var explainer *narrative.Explainer
	if chain := cfg.BuildChain(logger); chain.Len() > 0 {
		explainer = narrative.NewExplainer(chain)
		logger.Info("narrative explanations enabled", zap.Int("models", chain.Len()))
	}

	server := api.NewServer(api.Config{
		Catalog:   provider,
		Engine:    engine.New(engine.Config{Rules: rules, DisablePriorSeeds: cfg.Engine.DisablePriorSeeds}),
		Explainer: explainer,
		Logger:    logger,
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // explanations wait on external models
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
