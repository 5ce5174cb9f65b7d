package usecase

import (
	"sort"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

type fusedCandidate struct {
	doc   domain.RetrievedDocument
	score float64
}

// fuseDocumentsRRF merges two ranked result lists with reciprocal rank
// fusion. Used by the graph tier to combine fulltext hits with traversal
// hits into one ranking.
func fuseDocumentsRRF(primary, secondary []domain.RetrievedDocument, rrfK int) []domain.RetrievedDocument {
	if rrfK <= 0 {
		rrfK = 60
	}

	acc := make(map[string]fusedCandidate, len(primary)+len(secondary))
	addList := func(docs []domain.RetrievedDocument) {
		for rank, doc := range docs {
			key := documentKey(doc)
			candidate := acc[key]
			candidate.doc = preferRicherDocument(candidate.doc, doc)
			candidate.score += 1.0 / float64(rrfK+rank+1)
			acc[key] = candidate
		}
	}

	addList(primary)
	addList(secondary)

	out := make([]domain.RetrievedDocument, 0, len(acc))
	for _, c := range acc {
		doc := c.doc
		doc.Score = c.score
		out = append(out, doc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Title < out[j].Title
	})

	return out
}

func documentKey(doc domain.RetrievedDocument) string {
	if doc.ID != "" {
		return doc.ID
	}
	return doc.Title + "|" + doc.Citation
}

func preferRicherDocument(current, candidate domain.RetrievedDocument) domain.RetrievedDocument {
	if current.ID == "" && current.Title == "" && current.Snippet == "" {
		return candidate
	}
	if current.Snippet == "" && candidate.Snippet != "" {
		current.Snippet = candidate.Snippet
	}
	if current.Citation == "" && candidate.Citation != "" {
		current.Citation = candidate.Citation
	}
	if current.Jurisdiction == "" && candidate.Jurisdiction != "" {
		current.Jurisdiction = candidate.Jurisdiction
	}
	if current.Program == "" && candidate.Program != "" {
		current.Program = candidate.Program
	}
	if current.Language == "" && candidate.Language != "" {
		current.Language = candidate.Language
	}
	return current
}
