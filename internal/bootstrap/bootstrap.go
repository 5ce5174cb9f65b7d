package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/benefits-navigator/internal/config"
	"github.com/kirillkom/benefits-navigator/internal/core/ports"
	"github.com/kirillkom/benefits-navigator/internal/core/usecase"
	memorycache "github.com/kirillkom/benefits-navigator/internal/infrastructure/cache/memory"
	rediscache "github.com/kirillkom/benefits-navigator/internal/infrastructure/cache/redis"
	graphstore "github.com/kirillkom/benefits-navigator/internal/infrastructure/graph/neo4j"
	"github.com/kirillkom/benefits-navigator/internal/infrastructure/index/opensearch"
	"github.com/kirillkom/benefits-navigator/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/benefits-navigator/internal/infrastructure/parser/rules"
	natsqueue "github.com/kirillkom/benefits-navigator/internal/infrastructure/queue/nats"
	"github.com/kirillkom/benefits-navigator/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/benefits-navigator/internal/infrastructure/resilience"
	"github.com/kirillkom/benefits-navigator/internal/observability/logging"
)

// App holds every wired component. The api binary serves AskUC over HTTP and
// consumes corpus-updated events; the worker binary consumes answer events
// into AuditRepo.
type App struct {
	Config config.Config

	AskUC     *usecase.AskUseCase
	Queue     ports.EventQueue
	AuditRepo ports.AuditStore

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	fallbackRepo := postgres.NewFallbackRepository(db)
	if err := fallbackRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure provisions schema: %w", err)
	}
	auditRepo := postgres.NewAuditRepository(db)
	if err := auditRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure audit schema: %w", err)
	}

	// One executor covers all retrieval backends; breakers are still isolated
	// per operation name inside it.
	retrievalExec := resilience.NewExecutor(resilience.DefaultConfig(), logging.WithComponent(logger, "resilience"))

	index := opensearch.New(cfg.IndexURL, cfg.IndexName, retrievalExec, logging.WithComponent(logger, "index"))

	graph, err := graphstore.New(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase,
		retrievalExec, logging.WithComponent(logger, "graph"))
	if err != nil {
		return nil, fmt.Errorf("init graph store: %w", err)
	}

	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSAnswerSubject, cfg.NATSCorpusSubject,
		logging.WithComponent(logger, "queue"), natsqueue.Options{
			QueueGroup:         cfg.WorkerQueueGroup,
			ResilienceExecutor: retrievalExec,
		})
	if err != nil {
		return nil, fmt.Errorf("init event queue: %w", err)
	}

	generationExec := resilience.NewExecutor(resilience.GenerationConfig(), logging.WithComponent(logger, "resilience"))
	generator := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, generationExec, logging.WithComponent(logger, "llm"))

	cache, closeCache, err := newAnswerCache(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init answer cache: %w", err)
	}

	parser := rules.New()
	expander := usecase.NewSynonymExpanderFromConfig(cfg.SynonymTablePath, cfg.SynonymMaxVariants, logger)
	orchestrator := usecase.NewTierOrchestrator(index, graph, fallbackRepo, expander, usecase.RetrievalConfig{
		TargetDocs:    cfg.RetrievalTargetDocs,
		MaxDocs:       cfg.RetrievalMaxDocs,
		MaxChars:      cfg.RetrievalMaxChars,
		Budget:        cfg.RetrievalBudget,
		CallTimeout:   cfg.RetrievalCallTimeout,
		GraphMaxDepth: cfg.RetrievalGraphMaxDepth,
	}, logging.WithComponent(logger, "orchestrator"))

	askUC := usecase.NewAskUseCase(parser, orchestrator, generator, cache, queue, usecase.AskOptions{
		CacheTTL:          cfg.CacheTTL,
		GenerationTimeout: cfg.GenerationTimeout,
		SystemPrompt:      cfg.SystemPrompt,
	}, logging.WithComponent(logger, "ask"))

	return &App{
		Config: cfg,

		AskUC:     askUC,
		Queue:     queue,
		AuditRepo: auditRepo,

		closeFn: func() {
			queue.Close()
			closeCache()
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := graph.Close(closeCtx); err != nil {
				logger.Warn("graph_close_failed", "error", err)
			}
			_ = db.Close()
		},
	}, nil
}

func newAnswerCache(cfg config.Config, logger *slog.Logger) (ports.AnswerCache, func(), error) {
	switch cfg.CacheBackend {
	case "redis":
		cache, err := rediscache.New(rediscache.Config{
			Addrs:     []string{cfg.RedisAddr},
			KeyPrefix: cfg.RedisPrefix,
		}, logging.WithComponent(logger, "cache"))
		if err != nil {
			return nil, nil, err
		}
		return cache, cache.Close, nil
	case "", "memory":
		return memorycache.New(cfg.CacheCapacity), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
