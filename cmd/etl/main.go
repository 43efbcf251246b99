package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/snow-drift-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/snow-drift-etl/internal/adapter/kafka"
	"github.com/couchcryptid/snow-drift-etl/internal/config"
	"github.com/couchcryptid/snow-drift-etl/internal/domain"
	"github.com/couchcryptid/snow-drift-etl/internal/observability"
	"github.com/couchcryptid/snow-drift-etl/internal/pipeline"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	defaults := domain.Params{T: cfg.TransportDistance, F: cfg.FetchDistance, Theta: cfg.Relocation}

	var analyzer pipeline.Analyzer = pipeline.NewAnalyzer(cfg.AnalysisWorkers)
	if cfg.AnalysisCacheSize > 0 {
		analyzer = pipeline.NewCachedAnalyzer(analyzer, cfg.AnalysisCacheSize, metrics)
		logger.Info("analysis cache enabled", "cache_size", cfg.AnalysisCacheSize)
	} else {
		logger.Info("analysis cache disabled")
	}

	transformer, err := pipeline.NewTransformer(defaults, analyzer, logger, metrics)
	if err != nil {
		logger.Error("invalid drift parameters", "error", err)
		os.Exit(1)
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize,
		pipeline.WithEncoding(cfg.SinkEncoding))

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, transformer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("snow drift etl starting",
		"source_topic", cfg.KafkaSourceTopic,
		"sink_topic", cfg.KafkaSinkTopic,
		"sink_encoding", cfg.SinkEncoding,
		"t", defaults.T, "f", defaults.F, "theta", defaults.Theta,
		"workers", cfg.AnalysisWorkers,
	)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	done := make(chan struct{})
	go func() {
		defer close(done)
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
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
