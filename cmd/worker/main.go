package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mpetrenko/doc-enrichment/internal/bootstrap"
	"github.com/mpetrenko/doc-enrichment/internal/config"
	"github.com/mpetrenko/doc-enrichment/internal/infrastructure/dispatch"
	"github.com/mpetrenko/doc-enrichment/internal/observability/logging"
	"github.com/mpetrenko/doc-enrichment/internal/observability/metrics"
)

const serviceName = "doc-enrichment-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	pool, err := dispatch.New(app.EnrichUC, dispatch.Config{
		Size:        cfg.WorkerPoolSize,
		TaskTimeout: time.Duration(cfg.EnrichTimeoutSeconds) * time.Second,
		Service:     serviceName,
	}, workerMetrics, logger)
	if err != nil {
		log.Fatalf("worker pool error: %v", err)
	}
	defer pool.Release()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	if err := app.Queue.SubscribeEnrichmentRequested(ctx, pool.Handle); err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
