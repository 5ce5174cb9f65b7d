package domain

import "time"

// Citation is a reference span found in generated answer text, resolved
// against a source document when possible.
type Citation struct {
	Span       string  `json:"span"`
	DocumentID string  `json:"document_id,omitempty"`
	Section    string  `json:"section,omitempty"`
	Confidence float64 `json:"confidence"`
}

func (c Citation) Resolved() bool {
	return c.DocumentID != ""
}

// ConfidenceBreakdown is the weighted combination of the four trust signals.
// Final is the raw weighted sum clamped to [0,1]; no floor is applied so
// low-evidence answers can legitimately score near zero.
type ConfidenceBreakdown struct {
	CitationQuality  float64 `json:"citation_quality"`
	AnswerQuality    float64 `json:"answer_quality"`
	ContextQuality   float64 `json:"context_quality"`
	IntentConfidence float64 `json:"intent_confidence"`

	CitationWeight float64 `json:"citation_weight"`
	AnswerWeight   float64 `json:"answer_weight"`
	ContextWeight  float64 `json:"context_weight"`
	IntentWeight   float64 `json:"intent_weight"`

	Final float64 `json:"final"`
}

// CachedAnswer is the cache value; replaced wholesale, never partially updated.
type CachedAnswer struct {
	Key        string              `json:"key"`
	Answer     string              `json:"answer"`
	Citations  []Citation          `json:"citations,omitempty"`
	Confidence ConfidenceBreakdown `json:"confidence"`
	CreatedAt  time.Time           `json:"created_at"`
	TTL        time.Duration       `json:"ttl"`
}

func (a CachedAnswer) Expired(now time.Time) bool {
	return a.TTL > 0 && now.After(a.CreatedAt.Add(a.TTL))
}

// CacheStats is the observable state of the answer cache.
type CacheStats struct {
	Size    int     `json:"size"`
	HitRate float64 `json:"hit_rate"`
}

// Answer is the full response assembled for one question.
type Answer struct {
	Text       string              `json:"text"`
	Citations  []Citation          `json:"citations,omitempty"`
	Confidence ConfidenceBreakdown `json:"confidence"`
	Tier       int                 `json:"tier"`
	Attempts   []TierAttemptRecord `json:"attempts,omitempty"`
	Cached     bool                `json:"cached"`
}

// AnswerEvent is published after a question is answered, for offline audit.
type AnswerEvent struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Tier       int       `json:"tier"`
	Confidence float64   `json:"confidence"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
