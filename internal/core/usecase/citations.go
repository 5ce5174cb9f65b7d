package usecase

import (
	"regexp"
	"sort"
	"strings"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

// Citation matchers, in priority order: the bracketed form carries a title
// and resolves with high confidence; the bare section form is weaker.
var (
	bracketedCitationRe = regexp.MustCompile(`\[([^\[\],]+),\s*((?i:section|s\.)\s*\d[\w.\-]*)\]`)
	bareSectionRe       = regexp.MustCompile(`(?i)\b(?:section|s\.)\s*(\d[\w.\-]*)`)
)

const (
	confBracketedResolved   = 0.9
	confBracketedUnresolved = 0.6
	confBareResolved        = 0.75
	confBareUnresolved      = 0.5

	titleResolveThreshold = 0.6
)

type citationSpan struct {
	start    int
	end      int
	citation domain.Citation
}

// extractCitations scans generated answer text for citation-like spans and
// cross-links them to source documents. An empty result is a valid, expected
// state for low-confidence answers, not an error.
func extractCitations(answerText string, sourceDocs []domain.RetrievedDocument) []domain.Citation {
	if answerText == "" {
		return nil
	}

	var spans []citationSpan
	var bracketed []citationSpan

	for _, m := range bracketedCitationRe.FindAllStringSubmatchIndex(answerText, -1) {
		title := strings.TrimSpace(answerText[m[2]:m[3]])
		section := strings.TrimSpace(answerText[m[4]:m[5]])

		citation := domain.Citation{
			Span:       answerText[m[0]:m[1]],
			Section:    section,
			Confidence: confBracketedUnresolved,
		}
		if doc, ok := resolveByTitle(title, sourceDocs); ok {
			citation.DocumentID = doc.ID
			citation.Confidence = confBracketedResolved
		}
		span := citationSpan{start: m[0], end: m[1], citation: citation}
		spans = append(spans, span)
		bracketed = append(bracketed, span)
	}

	for _, m := range bareSectionRe.FindAllStringSubmatchIndex(answerText, -1) {
		// The bracketed matcher takes priority: a section reference inside an
		// already-matched bracket is the same citation, not a second one to
		// attribute elsewhere.
		if overlapsAny(m[0], m[1], bracketed) {
			continue
		}

		citation := domain.Citation{
			Span:       answerText[m[0]:m[1]],
			Section:    strings.TrimSpace(answerText[m[0]:m[1]]),
			Confidence: confBareUnresolved,
		}
		// A bare section reference is attributed to the strongest source
		// document when one exists.
		if len(sourceDocs) > 0 {
			citation.DocumentID = sourceDocs[0].ID
			citation.Confidence = confBareResolved
		}
		spans = append(spans, citationSpan{start: m[0], end: m[1], citation: citation})
	}

	return dedupeSpans(spans)
}

func overlapsAny(start, end int, spans []citationSpan) bool {
	for _, span := range spans {
		if start < span.end && span.start < end {
			return true
		}
	}
	return false
}

// resolveByTitle fuzzy-matches a cited title against the source documents by
// token overlap, returning the best match above the threshold.
func resolveByTitle(title string, sourceDocs []domain.RetrievedDocument) (domain.RetrievedDocument, bool) {
	cited := toTokenSet(title)
	if len(cited) == 0 {
		return domain.RetrievedDocument{}, false
	}

	var best domain.RetrievedDocument
	bestOverlap := 0.0
	for _, doc := range sourceDocs {
		overlap := tokenOverlap(cited, toTokenSet(doc.Title))
		if doc.Citation != "" {
			if o := tokenOverlap(cited, toTokenSet(doc.Citation)); o > overlap {
				overlap = o
			}
		}
		if overlap > bestOverlap {
			bestOverlap = overlap
			best = doc
		}
	}
	if bestOverlap >= titleResolveThreshold {
		return best, true
	}
	return domain.RetrievedDocument{}, false
}

// dedupeSpans drops overlapping matches, keeping the highest-confidence span,
// and returns the survivors in text order.
func dedupeSpans(spans []citationSpan) []domain.Citation {
	if len(spans) == 0 {
		return nil
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].citation.Confidence != spans[j].citation.Confidence {
			return spans[i].citation.Confidence > spans[j].citation.Confidence
		}
		return spans[i].start < spans[j].start
	})

	var kept []citationSpan
	for _, span := range spans {
		overlaps := false
		for _, existing := range kept {
			if span.start < existing.end && existing.start < span.end {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, span)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].start < kept[j].start })

	out := make([]domain.Citation, len(kept))
	for i, span := range kept {
		out[i] = span.citation
	}
	return out
}
