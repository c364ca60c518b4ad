package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/panjf2000/ants/v2"

	"github.com/sinowatch/sinowatch/internal/api"
	"github.com/sinowatch/sinowatch/internal/auth"
	"github.com/sinowatch/sinowatch/internal/config"
	"github.com/sinowatch/sinowatch/internal/database"
	"github.com/sinowatch/sinowatch/internal/extract"
	"github.com/sinowatch/sinowatch/internal/ingestion"
	"github.com/sinowatch/sinowatch/internal/logging"
	"github.com/sinowatch/sinowatch/internal/metrics"
	"github.com/sinowatch/sinowatch/internal/notify"
	"github.com/sinowatch/sinowatch/internal/server"
	"github.com/sinowatch/sinowatch/internal/tagging"
	"github.com/sinowatch/sinowatch/internal/translate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting sinowatch")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("connecting to database")
	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.Database.URL
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	if err := database.RunMigrations(db, cfg.Database.MigrationsDir, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	store := database.NewStore(db)

	sources := ingestion.DefaultSources()
	if cfg.Ingest.SourcesFile != "" {
		sources, err = ingestion.LoadSources(cfg.Ingest.SourcesFile)
		if err != nil {
			logger.Error("failed to load source registry", "file", cfg.Ingest.SourcesFile, "error", err)
			os.Exit(1)
		}
	}
	logger.Info("source registry loaded", "sources", len(sources))

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	pool, err := ants.NewPool(cfg.Ingest.ExtractWorkers)
	if err != nil {
		logger.Error("failed to init extraction pool", "error", err)
		os.Exit(1)
	}
	defer pool.Release()

	apiKey := ""
	if cfg.Translate.Enabled {
		apiKey = cfg.Translate.APIKey
		logger.Info("translation enabled", "model", cfg.Translate.Model)
	} else {
		logger.Info("translation disabled")
	}
	translator := translate.New(apiKey, cfg.Translate.Model, logger)

	pages := extract.NewClient(cfg.Ingest.RequestTimeout, cfg.Ingest.UserAgent)
	enricher := ingestion.NewEnricher(pages, extract.Text, pool, translator, tagging.KeywordTagger{}, logger)
	fetcher := ingestion.NewFetcher(cfg.Ingest.RequestTimeout, cfg.Ingest.UserAgent, cfg.Ingest.MaxArticlesPerSource, logger)

	hub := notify.NewHub(logger)

	orchestrator := ingestion.NewOrchestrator(sources, fetcher, enricher, store, hub, collector, logger, ingestion.Config{
		PollInterval:    cfg.Ingest.PollInterval,
		FeedMaxAttempts: cfg.Ingest.FeedMaxAttempts,
		FeedBackoff:     cfg.Ingest.FeedBackoff,
		Retry: ingestion.RetryConfig{
			InitialDelay: cfg.Ingest.RetryInitialDelay,
			MaxAttempts:  cfg.Ingest.RetryMaxAttempts,
			BatchSize:    cfg.Ingest.RetryBatchSize,
		},
	})
	go orchestrator.Start(ctx)

	authCfg := auth.Config(cfg.Auth)
	if !authCfg.Enabled() {
		logger.Warn("admin auth not configured, admin endpoints disabled")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	api.SetupRoutes(mux, api.Deps{
		Articles: store.Articles(),
		Health:   store.SourceHealth(),
		Retries:  store.RetryJobs(),
		DB:       db,
		Hub:      hub,
		Trigger:  orchestrator,
		Auth:     authCfg,
		Logger:   logger,
	})

	srv := server.New(cfg.Server, logger, collector.InstrumentHandler(mux))

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("sinowatch started", "port", cfg.Server.Port)

	waitForSignal(logger)

	logger.Info("shutting down")
	cancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
