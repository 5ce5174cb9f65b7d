package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/benefits-navigator/internal/bootstrap"
	"github.com/kirillkom/benefits-navigator/internal/config"
	"github.com/kirillkom/benefits-navigator/internal/core/domain"
	"github.com/kirillkom/benefits-navigator/internal/observability/logging"
	"github.com/kirillkom/benefits-navigator/internal/observability/metrics"
)

const service = "worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(service, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	m := metrics.NewWorkerMetrics(service)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsHandler(m),
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSAnswerSubject, "queue_group", cfg.WorkerQueueGroup)
	err = app.Queue.SubscribeAnswerRecorded(ctx, func(handlerCtx context.Context, event domain.AnswerEvent) error {
		m.StartEvent()
		m.ObserveQueueLag(service, time.Since(event.CreatedAt))

		start := time.Now()
		insertCtx, cancel := context.WithTimeout(handlerCtx, cfg.WorkerInsertBudget)
		insertErr := app.AuditRepo.InsertAnswerEvent(insertCtx, event)
		cancel()

		m.FinishEvent(service, time.Since(start), insertErr)
		return insertErr
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}

func metricsHandler(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
