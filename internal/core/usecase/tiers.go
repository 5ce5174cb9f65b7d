package usecase

import (
	"context"
	"errors"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
	"github.com/kirillkom/benefits-navigator/internal/core/ports"
)

// tierStrategy is one ordered step of the fallback sequence: a backing-store
// adapter paired with its weighting, sizing and stopping policy. The tier
// count and order are part of the contract, so the five implementations are
// registered in a fixed list and never discovered dynamically.
type tierStrategy interface {
	Tier() int
	// Variants lists the query phrasings to try, in order. Tier 1 always
	// returns the original query only.
	Variants(normalized string) []string
	Fetch(ctx context.Context, text string, filters domain.Filters) ([]domain.RetrievedDocument, error)
	// Satisfied is the stopping rule applied to a variant's result count.
	Satisfied(count int) bool
}

var (
	strictIndexWeights  = ports.IndexWeights{Title: 3.0, Content: 1.0}
	relaxedIndexWeights = ports.IndexWeights{Title: 1.5, Content: 1.0}
)

// Tier 1: primary index, full filter set, strict weights.
type indexStrictTier struct {
	index  ports.SearchIndex
	target int
	size   int
}

func (t *indexStrictTier) Tier() int { return 1 }

func (t *indexStrictTier) Variants(normalized string) []string { return []string{normalized} }

func (t *indexStrictTier) Fetch(ctx context.Context, text string, filters domain.Filters) ([]domain.RetrievedDocument, error) {
	return t.index.Search(ctx, text, filters, strictIndexWeights, t.size)
}

func (t *indexStrictTier) Satisfied(count int) bool { return count >= t.target }

// Tier 2: relaxed index search with synonym variants and loose weights.
type indexRelaxedTier struct {
	index    ports.SearchIndex
	expander *synonymExpander
	size     int
}

func (t *indexRelaxedTier) Tier() int { return 2 }

func (t *indexRelaxedTier) Variants(normalized string) []string { return t.expander.Expand(normalized) }

func (t *indexRelaxedTier) Fetch(ctx context.Context, text string, filters domain.Filters) ([]domain.RetrievedDocument, error) {
	return t.index.Search(ctx, text, filters, relaxedIndexWeights, t.size)
}

func (t *indexRelaxedTier) Satisfied(count int) bool { return count > 0 }

// Tier 3: graph fulltext plus relationship traversal, fused with RRF. The
// graph store has no structural filter support; the language facet is
// applied client-side.
type graphTier struct {
	graph    ports.GraphStore
	expander *synonymExpander
	maxDepth int
	size     int
}

func (t *graphTier) Tier() int { return 3 }

func (t *graphTier) Variants(normalized string) []string { return t.expander.Expand(normalized) }

func (t *graphTier) Fetch(ctx context.Context, text string, filters domain.Filters) ([]domain.RetrievedDocument, error) {
	fulltext, ftErr := t.graph.FulltextSearch(ctx, text, t.size)
	traversed, travErr := t.graph.Traverse(ctx, text, t.maxDepth, t.size)
	if ftErr != nil && travErr != nil {
		return nil, errors.Join(ftErr, travErr)
	}

	fused := fuseDocumentsRRF(fulltext, traversed, 0)
	return filterByLanguage(fused, filters), nil
}

func (t *graphTier) Satisfied(count int) bool { return count > 0 }

// Tier 4: relational full-text fallback; language applied client-side.
type relationalTier struct {
	store    ports.RelationalStore
	expander *synonymExpander
	size     int
}

func (t *relationalTier) Tier() int { return 4 }

func (t *relationalTier) Variants(normalized string) []string { return t.expander.Expand(normalized) }

func (t *relationalTier) Fetch(ctx context.Context, text string, filters domain.Filters) ([]domain.RetrievedDocument, error) {
	docs, err := t.store.FulltextSearch(ctx, text, t.size)
	if err != nil {
		return nil, err
	}
	return filterByLanguage(docs, filters), nil
}

func (t *relationalTier) Satisfied(count int) bool { return count > 0 }

// Tier 5: metadata-only match. Always terminal; whatever it finds is served
// as a low-confidence result.
type metadataTier struct {
	store ports.RelationalStore
	size  int
}

func (t *metadataTier) Tier() int { return 5 }

func (t *metadataTier) Variants(normalized string) []string { return []string{normalized} }

func (t *metadataTier) Fetch(ctx context.Context, _ string, filters domain.Filters) ([]domain.RetrievedDocument, error) {
	return t.store.MetadataSearch(ctx, filters, t.size)
}

func (t *metadataTier) Satisfied(count int) bool { return count > 0 }

func filterByLanguage(docs []domain.RetrievedDocument, filters domain.Filters) []domain.RetrievedDocument {
	if !filters.Has(domain.FacetLanguage) {
		return docs
	}
	accepted := make(map[string]struct{}, len(filters[domain.FacetLanguage]))
	for _, lang := range filters[domain.FacetLanguage] {
		accepted[lang] = struct{}{}
	}

	out := docs[:0:0]
	for _, doc := range docs {
		if doc.Language == "" {
			out = append(out, doc)
			continue
		}
		if _, ok := accepted[doc.Language]; ok {
			out = append(out, doc)
		}
	}
	return out
}
