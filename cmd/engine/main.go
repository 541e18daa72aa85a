package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/citysignal/transform-engine/internal/adapter/http"
	kafkaadapter "github.com/citysignal/transform-engine/internal/adapter/kafka"
	"github.com/citysignal/transform-engine/internal/config"
	"github.com/citysignal/transform-engine/internal/observability"
	"github.com/citysignal/transform-engine/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(logger)

	// Heatmap publishing is feature-flagged via HEATMAP_ENABLED.
	var heatmapWriter *kafkaadapter.HeatmapWriter
	var heatmapLoader pipeline.HeatmapLoader
	if cfg.HeatmapEnabled {
		heatmapWriter = kafkaadapter.NewHeatmapWriter(cfg, logger)
		heatmapLoader = heatmapWriter
		logger.Info("heatmap publishing enabled",
			"resolution", cfg.HeatmapResolution,
			"flush_interval", cfg.HeatmapFlushInterval,
		)
	} else {
		logger.Info("heatmap publishing disabled")
	}

	p := pipeline.New(reader, transformer, writer, heatmapLoader,
		logger, metrics, cfg.BatchSize, cfg.HeatmapResolution, cfg.HeatmapFlushInterval)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start recompute pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if heatmapWriter != nil {
		if err := heatmapWriter.Close(); err != nil {
			logger.Error("kafka heatmap writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
