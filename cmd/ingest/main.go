package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/homie-data/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/homie-data/internal/adapter/kafka"
	"github.com/couchcryptid/homie-data/internal/adapter/remote"
	"github.com/couchcryptid/homie-data/internal/config"
	"github.com/couchcryptid/homie-data/internal/observability"
	"github.com/couchcryptid/homie-data/internal/pipeline"
	"github.com/couchcryptid/homie-data/internal/repository"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	os.Exit(run(cfg, logger, metrics))
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.Open(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to open backend", "backend", cfg.Backend, "error", err)
		return 1
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("backend close error", "error", err)
		}
	}()

	// Publishing is feature-flagged via PUBLISH_ENABLED.
	var publisher pipeline.Publisher
	if cfg.PublishEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("publishing disabled")
	}

	p := pipeline.New(repo, publisher, logger, metrics, cfg.IngestWorkers)

	var api http.Handler
	if cfg.ServeAfterIngest {
		api = remote.NewHandler(repo, logger)
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, api, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	report := p.Run(ctx, pipeline.JobsFromConfig(cfg))
	code := 0
	if !report.OK() {
		logger.Error("ingestion incomplete", "error", report.Err())
		code = 1
	}

	if cfg.ServeAfterIngest && ctx.Err() == nil {
		logger.Info("serving persistence api", "addr", cfg.HTTPAddr, "prefix", httpadapter.APIPrefix)
		<-ctx.Done()
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return code
}
