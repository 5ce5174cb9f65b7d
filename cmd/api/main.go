package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/benefits-navigator/internal/adapters/http"
	"github.com/kirillkom/benefits-navigator/internal/bootstrap"
	"github.com/kirillkom/benefits-navigator/internal/config"
	"github.com/kirillkom/benefits-navigator/internal/observability/logging"
	"github.com/kirillkom/benefits-navigator/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	m := metrics.NewHTTPServerMetrics("api")
	router := httpadapter.NewRouter(app.AskUC, app.AskUC, m, logger, httpadapter.Options{
		Service:          "api",
		RateLimitRPS:     float64(cfg.APIRateLimitRPS),
		RateLimitBurst:   cfg.APIRateLimitBurst,
		MaxInFlight:      cfg.APIMaxInFlight,
		BackpressureWait: cfg.APIBackpressureWait,
	})
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Corpus changes invalidate every cached answer; each replica flushes its
	// own cache when the event arrives.
	go func() {
		if err := app.Queue.SubscribeCorpusUpdated(ctx, func(handlerCtx context.Context) error {
			logger.Info("corpus_updated_clearing_answers")
			return app.AskUC.ClearAnswers(handlerCtx)
		}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("corpus_subscription_failed", "error", err)
		}
	}()

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
