package ports

import (
	"context"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

// IndexWeights are the per-field boosts applied by the full-text/vector index.
type IndexWeights struct {
	Title   float64
	Content float64
}

// SearchIndex is the full-text/vector index adapter (tiers 1 and 2).
type SearchIndex interface {
	Search(ctx context.Context, text string, filters domain.Filters, weights IndexWeights, size int) ([]domain.RetrievedDocument, error)
}

// GraphStore is the graph-relationship store adapter (tier 3).
type GraphStore interface {
	FulltextSearch(ctx context.Context, text string, size int) ([]domain.RetrievedDocument, error)
	Traverse(ctx context.Context, seedText string, maxDepth, size int) ([]domain.RetrievedDocument, error)
}

// RelationalStore is the relational fallback adapter (tiers 4 and 5).
type RelationalStore interface {
	FulltextSearch(ctx context.Context, text string, size int) ([]domain.RetrievedDocument, error)
	MetadataSearch(ctx context.Context, filters domain.Filters, size int) ([]domain.RetrievedDocument, error)
}

// QueryParser extracts intent, filters and keywords from the raw question.
// Pure; consumed once per request before tiering begins.
type QueryParser interface {
	Parse(rawText string) domain.ParsedQuery
}

// AnswerGenerator turns the assembled context and question into prose.
type AnswerGenerator interface {
	Generate(ctx context.Context, contextBlob, question, systemPrompt string) (string, error)
}

// AnswerCache is the shared normalized-question-keyed answer store. A stale,
// evicted or unreadable entry is reported as a miss, never as an error.
type AnswerCache interface {
	Get(ctx context.Context, key string) (*domain.CachedAnswer, bool)
	Put(ctx context.Context, key string, answer domain.CachedAnswer)
	Clear(ctx context.Context) error
	Stats(ctx context.Context) domain.CacheStats
}

// EventQueue publishes and consumes answer/corpus events.
type EventQueue interface {
	PublishAnswerRecorded(ctx context.Context, event domain.AnswerEvent) error
	SubscribeAnswerRecorded(ctx context.Context, handler func(context.Context, domain.AnswerEvent) error) error
	SubscribeCorpusUpdated(ctx context.Context, handler func(context.Context) error) error
}

// AuditStore persists served answers for offline analysis.
type AuditStore interface {
	InsertAnswerEvent(ctx context.Context, event domain.AnswerEvent) error
}
