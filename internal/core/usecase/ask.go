package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
	"github.com/kirillkom/benefits-navigator/internal/core/ports"
)

// AskOptions carries the request-flow policy knobs.
type AskOptions struct {
	CacheTTL          time.Duration
	GenerationTimeout time.Duration
	SystemPrompt      string
}

func (o AskOptions) normalize() AskOptions {
	out := o
	if out.CacheTTL <= 0 {
		out.CacheTTL = 24 * time.Hour
	}
	if out.GenerationTimeout <= 0 {
		out.GenerationTimeout = 60 * time.Second
	}
	return out
}

// AskUseCase is the top-level request flow: normalize, parse, consult the
// cache, orchestrate retrieval, generate, extract citations, score, cache,
// publish.
type AskUseCase struct {
	parser       ports.QueryParser
	orchestrator *TierOrchestrator
	generator    ports.AnswerGenerator
	cache        ports.AnswerCache
	queue        ports.EventQueue
	opts         AskOptions
	logger       *slog.Logger
}

func NewAskUseCase(
	parser ports.QueryParser,
	orchestrator *TierOrchestrator,
	generator ports.AnswerGenerator,
	cache ports.AnswerCache,
	queue ports.EventQueue,
	opts AskOptions,
	logger *slog.Logger,
) *AskUseCase {
	return &AskUseCase{
		parser:       parser,
		orchestrator: orchestrator,
		generator:    generator,
		cache:        cache,
		queue:        queue,
		opts:         opts.normalize(),
		logger:       logger,
	}
}

func (uc *AskUseCase) Ask(ctx context.Context, question string, filters domain.Filters) (*domain.Answer, error) {
	start := time.Now()
	if strings.TrimSpace(question) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", fmt.Errorf("question is empty"))
	}

	normalized, language := normalizeQuestion(question)
	parsed := uc.parser.Parse(question)
	query := buildQuery(question, normalized, language, parsed, filters)

	key := answerCacheKey(query.Normalized, query.Filters)
	if cached, ok := uc.cache.Get(ctx, key); ok {
		uc.logger.Info("answer_cache_hit", "key", key)
		return &domain.Answer{
			Text:       cached.Answer,
			Citations:  cached.Citations,
			Confidence: cached.Confidence,
			Cached:     true,
		}, nil
	}

	bundle, attempts := uc.orchestrator.Retrieve(ctx, query)

	genCtx, cancel := context.WithTimeout(ctx, uc.opts.GenerationTimeout)
	answerText, err := uc.generator.Generate(genCtx, bundle.Text, question, uc.opts.SystemPrompt)
	cancel()
	if err != nil {
		// Generation failures occur after retrieval succeeded and are never
		// downgraded; callers must be able to tell "found nothing" from
		// "could not generate".
		return nil, domain.WrapError(domain.ErrGenerationFailed, "generate answer", err)
	}

	citations := extractCitations(answerText, bundle.Docs)
	confidence := scoreConfidence(citations, bundle, answerText, query.IntentConfidence)

	uc.cache.Put(ctx, key, domain.CachedAnswer{
		Key:        key,
		Answer:     answerText,
		Citations:  citations,
		Confidence: confidence,
		CreatedAt:  time.Now().UTC(),
		TTL:        uc.opts.CacheTTL,
	})

	uc.publishAnswerEvent(ctx, question, answerText, bundle.Tier, confidence.Final, time.Since(start))

	return &domain.Answer{
		Text:       answerText,
		Citations:  citations,
		Confidence: confidence,
		Tier:       bundle.Tier,
		Attempts:   attempts,
	}, nil
}

// ClearAnswers drops all cached answers; exposed to the admin surface and to
// the corpus-updated event handler.
func (uc *AskUseCase) ClearAnswers(ctx context.Context) error {
	return uc.cache.Clear(ctx)
}

func (uc *AskUseCase) AnswerCacheStats(ctx context.Context) domain.CacheStats {
	return uc.cache.Stats(ctx)
}

func (uc *AskUseCase) publishAnswerEvent(ctx context.Context, question, answer string, tier int, confidence float64, duration time.Duration) {
	if uc.queue == nil {
		return
	}
	event := domain.AnswerEvent{
		ID:         uuid.NewString(),
		Question:   question,
		Answer:     answer,
		Tier:       tier,
		Confidence: confidence,
		DurationMS: duration.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.queue.PublishAnswerRecorded(ctx, event); err != nil {
		// Audit publishing is best effort; the answer is already served.
		uc.logger.Warn("answer_event_publish_failed", "event_id", event.ID, "error", err)
	}
}

// buildQuery merges caller-supplied filters over parsed ones and fills the
// language facet from detection when absent. The result is immutable for the
// rest of the request.
func buildQuery(raw, normalized string, language domain.Language, parsed domain.ParsedQuery, requestFilters domain.Filters) domain.Query {
	merged := parsed.Filters.Clone()
	if merged == nil {
		merged = domain.Filters{}
	}
	for facet, values := range requestFilters {
		if len(values) == 0 {
			continue
		}
		copied := make([]string, len(values))
		copy(copied, values)
		merged[facet] = copied
	}
	if !merged.Has(domain.FacetLanguage) {
		merged[domain.FacetLanguage] = []string{string(language)}
	}

	return domain.Query{
		Raw:              raw,
		Normalized:       normalized,
		Language:         language,
		Intent:           parsed.Intent,
		IntentConfidence: parsed.IntentConfidence,
		Filters:          merged,
		Keywords:         parsed.Keywords,
	}
}

// NewSynonymExpanderFromConfig builds the expander used at relaxed tiers,
// optionally loading the synonym table from a YAML file.
func NewSynonymExpanderFromConfig(tablePath string, maxVariants int, logger *slog.Logger) *synonymExpander {
	table := defaultSynonymTable
	if tablePath != "" {
		loaded, err := loadSynonymTable(tablePath)
		if err != nil {
			logger.Warn("synonym_table_load_failed", "path", tablePath, "error", err)
		} else {
			table = loaded
		}
	}
	return newSynonymExpander(table, maxVariants)
}
