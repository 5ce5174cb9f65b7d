package usecase

import (
	"testing"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

func fullFilterSet() domain.Filters {
	return domain.Filters{
		domain.FacetProgram:      {"employment-insurance"},
		domain.FacetJurisdiction: {"federal"},
		domain.FacetAudience:     {"temporary-resident"},
		domain.FacetLanguage:     {"en"},
	}
}

func TestRelaxFiltersTier1Identity(t *testing.T) {
	original := fullFilterSet()
	relaxed := relaxFilters(original, 1)

	if len(relaxed) != len(original) {
		t.Fatalf("tier 1 must keep all facets, got %v", relaxed.Facets())
	}
	for _, facet := range original.Facets() {
		if !relaxed.Has(facet) {
			t.Fatalf("tier 1 dropped facet %s", facet)
		}
	}
}

func TestRelaxFiltersTier2DropsNonEssential(t *testing.T) {
	relaxed := relaxFilters(fullFilterSet(), 2)

	if relaxed.Has(domain.FacetProgram) || relaxed.Has(domain.FacetAudience) {
		t.Fatalf("tier 2 must drop program and audience, got %v", relaxed.Facets())
	}
	if !relaxed.Has(domain.FacetLanguage) || !relaxed.Has(domain.FacetJurisdiction) {
		t.Fatalf("tier 2 must keep language and jurisdiction, got %v", relaxed.Facets())
	}
}

// Tiers 3 and 4 may retain at most the language facet, whatever the input.
func TestRelaxFiltersTiers3And4LanguageOnly(t *testing.T) {
	inputs := []domain.Filters{
		fullFilterSet(),
		{domain.FacetProgram: {"cpp"}},
		{domain.FacetLanguage: {"fr"}, domain.FacetAudience: {"student"}},
		{},
		nil,
	}

	for _, tier := range []int{3, 4} {
		for _, input := range inputs {
			relaxed := relaxFilters(input, tier)
			for _, facet := range relaxed.Facets() {
				if facet != domain.FacetLanguage {
					t.Fatalf("tier %d retained facet %s for input %v", tier, facet, input)
				}
			}
		}
	}
}

func TestRelaxFiltersDoesNotMutateInput(t *testing.T) {
	original := fullFilterSet()
	relaxed := relaxFilters(original, 3)
	relaxed[domain.FacetLanguage] = []string{"fr"}

	if original.First(domain.FacetLanguage) != "en" {
		t.Fatalf("relaxation mutated the original filter set")
	}
	if len(original) != 4 {
		t.Fatalf("original filter set changed size: %d", len(original))
	}
}

func TestRelaxationDiff(t *testing.T) {
	original := fullFilterSet()
	relaxed := relaxFilters(original, 2)
	dropped, retained := relaxationDiff(original, relaxed)

	if len(dropped) != 2 || len(retained) != 2 {
		t.Fatalf("expected 2 dropped / 2 retained, got %v / %v", dropped, retained)
	}
}
