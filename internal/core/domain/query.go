package domain

import "sort"

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
)

// Facet names recognized across the retrieval tiers.
const (
	FacetProgram      = "program"
	FacetJurisdiction = "jurisdiction"
	FacetAudience     = "audience"
	FacetLanguage     = "language"
)

// Filters maps a facet name to its accepted values. Tiers always work on a
// derived copy, never on the request's original set.
type Filters map[string][]string

func (f Filters) Clone() Filters {
	if f == nil {
		return nil
	}
	out := make(Filters, len(f))
	for facet, values := range f {
		copied := make([]string, len(values))
		copy(copied, values)
		out[facet] = copied
	}
	return out
}

// Facets returns the facet names present in the set, sorted for deterministic
// logging and cache keying.
func (f Filters) Facets() []string {
	out := make([]string, 0, len(f))
	for facet := range f {
		out = append(out, facet)
	}
	sort.Strings(out)
	return out
}

func (f Filters) Has(facet string) bool {
	values, ok := f[facet]
	return ok && len(values) > 0
}

func (f Filters) First(facet string) string {
	values := f[facet]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Query is the immutable request state built once before tiering begins.
type Query struct {
	Raw              string   `json:"raw"`
	Normalized       string   `json:"normalized"`
	Language         Language `json:"language"`
	Intent           string   `json:"intent"`
	IntentConfidence float64  `json:"intent_confidence"`
	Filters          Filters  `json:"filters,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
}

// ParsedQuery is the output of the query-understanding collaborator.
type ParsedQuery struct {
	Intent           string
	IntentConfidence float64
	Filters          Filters
	Keywords         []string
}
