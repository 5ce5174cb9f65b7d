package usecase

import "github.com/kirillkom/benefits-navigator/internal/core/domain"

// relaxationTable lists, per tier, the facets a tier is allowed to keep.
// Tier 1 is the identity; lower rows trade precision for recall.
var relaxationTable = map[int][]string{
	1: {domain.FacetProgram, domain.FacetJurisdiction, domain.FacetAudience, domain.FacetLanguage},
	2: {domain.FacetJurisdiction, domain.FacetLanguage},
	3: {domain.FacetLanguage},
	4: {domain.FacetLanguage},
	5: {domain.FacetJurisdiction, domain.FacetLanguage},
}

// relaxFilters derives the filter set permitted at the given tier. Pure and
// deterministic; the input set is never mutated.
func relaxFilters(filters domain.Filters, tier int) domain.Filters {
	kept, ok := relaxationTable[tier]
	if !ok {
		return domain.Filters{}
	}

	out := make(domain.Filters, len(kept))
	for _, facet := range kept {
		values, present := filters[facet]
		if !present || len(values) == 0 {
			continue
		}
		copied := make([]string, len(values))
		copy(copied, values)
		out[facet] = copied
	}
	return out
}

// relaxationDiff reports which facets were dropped and which retained, for
// per-tier observability.
func relaxationDiff(original, relaxed domain.Filters) (dropped, retained []string) {
	for _, facet := range original.Facets() {
		if relaxed.Has(facet) {
			retained = append(retained, facet)
		} else {
			dropped = append(dropped, facet)
		}
	}
	return dropped, retained
}
