package ports

import (
	"context"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

// QuestionAnswerer is the inbound contract for answering questions.
type QuestionAnswerer interface {
	Ask(ctx context.Context, question string, filters domain.Filters) (*domain.Answer, error)
}

// CacheAdmin is the inbound contract for administrative cache operations.
type CacheAdmin interface {
	ClearAnswers(ctx context.Context) error
	AnswerCacheStats(ctx context.Context) domain.CacheStats
}
