package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

// retrievalFacets are the facets that affect retrieval and therefore
// participate in the cache key.
var retrievalFacets = []string{
	domain.FacetProgram,
	domain.FacetJurisdiction,
	domain.FacetAudience,
	domain.FacetLanguage,
}

// answerCacheKey derives the cache key from the normalized question and the
// retrieval-relevant filters: case-insensitive, whitespace-collapsed,
// deterministic across value ordering.
func answerCacheKey(normalized string, filters domain.Filters) string {
	var b strings.Builder
	b.WriteString(canonicalText(normalized))

	for _, facet := range retrievalFacets {
		values := filters[facet]
		if len(values) == 0 {
			continue
		}
		canonical := make([]string, len(values))
		for i, v := range values {
			canonical[i] = canonicalText(v)
		}
		sort.Strings(canonical)

		b.WriteString("|")
		b.WriteString(facet)
		b.WriteString("=")
		b.WriteString(strings.Join(canonical, ","))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func canonicalText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
