package domain

import "time"

// ScoreBreakdown carries the optional lexical/semantic split some index
// engines report per hit.
type ScoreBreakdown struct {
	Lexical  float64 `json:"lexical"`
	Semantic float64 `json:"semantic"`
}

// RetrievedDocument is the uniform document shape every backing-store adapter
// returns. Owned by the tier that produced it, read-only downstream.
type RetrievedDocument struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Citation     string          `json:"citation,omitempty"`
	Jurisdiction string          `json:"jurisdiction,omitempty"`
	Program      string          `json:"program,omitempty"`
	Language     string          `json:"language,omitempty"`
	Snippet      string          `json:"snippet,omitempty"`
	Score        float64         `json:"score"`
	Breakdown    *ScoreBreakdown `json:"score_breakdown,omitempty"`
}

// TierAttemptRecord describes one tier invocation. Records are append-only
// across an orchestration run and never mutated after append.
type TierAttemptRecord struct {
	Tier         int           `json:"tier"`
	Filters      Filters       `json:"filters,omitempty"`
	QueryVariant string        `json:"query_variant"`
	Elapsed      time.Duration `json:"elapsed"`
	ResultCount  int           `json:"result_count"`
	Success      bool          `json:"success"`
	Error        string        `json:"error,omitempty"`
}

// ContextBundle is the bounded, formatted retrieval result handed to the
// generation collaborator. Tier holds the index of the tier that satisfied
// the stopping rule, or 5 when none did.
type ContextBundle struct {
	Docs []RetrievedDocument `json:"docs"`
	Text string              `json:"text"`
	Tier int                 `json:"tier"`
}
