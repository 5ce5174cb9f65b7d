package usecase

import (
	"strings"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

// Fixed signal weights. The sum is 1.0, so the final score is already on the
// [0,1] scale before clamping.
const (
	citationWeight = 0.35
	answerWeight   = 0.25
	contextWeight  = 0.25
	intentWeight   = 0.15

	// Citation credit saturates: more than this many well-resolved citations
	// adds nothing further.
	citationSaturation = 4.0

	answerTooShortChars = 40
	answerTooLongChars  = 4000
)

var uncertaintyPhrases = []string{
	"i don't know",
	"i do not know",
	"unclear",
	"cannot determine",
	"can't determine",
	"insufficient information",
	"not enough information",
	"je ne sais pas",
}

// scoreConfidence combines citation quality, answer-text heuristics, context
// quality and the upstream intent confidence into one clamped score. No
// floor is applied: low-evidence answers legitimately score near zero.
func scoreConfidence(
	citations []domain.Citation,
	bundle domain.ContextBundle,
	answerText string,
	intentConfidence float64,
) domain.ConfidenceBreakdown {
	citationQ := citationQuality(citations)
	answerQ := answerQuality(answerText)
	contextQ := contextQuality(bundle)
	intentQ := clamp01(intentConfidence)

	final := clamp01(citationWeight*citationQ +
		answerWeight*answerQ +
		contextWeight*contextQ +
		intentWeight*intentQ)

	return domain.ConfidenceBreakdown{
		CitationQuality:  citationQ,
		AnswerQuality:    answerQ,
		ContextQuality:   contextQ,
		IntentConfidence: intentQ,

		CitationWeight: citationWeight,
		AnswerWeight:   answerWeight,
		ContextWeight:  contextWeight,
		IntentWeight:   intentWeight,

		Final: final,
	}
}

func citationQuality(citations []domain.Citation) float64 {
	if len(citations) == 0 {
		return 0
	}
	var sum float64
	for _, c := range citations {
		sum += clamp01(c.Confidence)
	}
	return clamp01(sum / citationSaturation)
}

func answerQuality(answerText string) float64 {
	trimmed := strings.TrimSpace(answerText)
	if trimmed == "" {
		return 0
	}

	quality := 1.0
	switch {
	case len(trimmed) < answerTooShortChars:
		quality = 0.3
	case len(trimmed) > answerTooLongChars:
		quality = 0.6
	}

	lower := strings.ToLower(trimmed)
	for _, phrase := range uncertaintyPhrases {
		if strings.Contains(lower, phrase) {
			quality *= 0.2
			break
		}
	}
	return clamp01(quality)
}

// contextQuality is the normalized mean of the per-document relevance scores
// in the winning bundle. Raw scores come from different engines on different
// scales; s/(s+1) maps them monotonically onto [0,1).
func contextQuality(bundle domain.ContextBundle) float64 {
	if len(bundle.Docs) == 0 {
		return 0
	}
	var sum float64
	for _, doc := range bundle.Docs {
		score := doc.Score
		if score < 0 {
			score = 0
		}
		sum += score / (score + 1)
	}
	return clamp01(sum / float64(len(bundle.Docs)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
