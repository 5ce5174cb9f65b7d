package usecase

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSynonymExpanderOriginalFirst(t *testing.T) {
	expander := newSynonymExpander(defaultSynonymTable, 5)

	variants := expander.Expand("can i apply for employment insurance")
	if len(variants) < 2 {
		t.Fatalf("expected at least 2 variants, got %v", variants)
	}
	if variants[0] != "can i apply for employment insurance" {
		t.Fatalf("first variant must be the original text, got %q", variants[0])
	}
	found := false
	for _, v := range variants {
		if v == "can i apply for ei" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected abbreviation variant, got %v", variants)
	}
}

func TestSynonymExpanderBidirectional(t *testing.T) {
	expander := newSynonymExpander(defaultSynonymTable, 5)

	variants := expander.Expand("what is my ei entitlement")
	found := false
	for _, v := range variants {
		if v == "what is my employment insurance entitlement" {
			found = true
		}
	}
	if !found {
		t.Fatalf("abbreviation must expand back to the full term, got %v", variants)
	}
}

func TestSynonymExpanderCapsVariants(t *testing.T) {
	expander := newSynonymExpander(defaultSynonymTable, 2)

	variants := expander.Expand("employment insurance and canada pension plan and old age security")
	if len(variants) > 2 {
		t.Fatalf("expected at most 2 variants, got %d", len(variants))
	}
}

func TestSynonymExpanderNoMatches(t *testing.T) {
	expander := newSynonymExpander(defaultSynonymTable, 5)

	variants := expander.Expand("are martian colonists eligible")
	if len(variants) != 1 {
		t.Fatalf("expected only the original variant, got %v", variants)
	}
}

func TestSynonymExpanderDeterministic(t *testing.T) {
	expander := newSynonymExpander(defaultSynonymTable, 5)

	first := expander.Expand("employment insurance for temporary resident workers")
	for i := 0; i < 10; i++ {
		again := expander.Expand("employment insurance for temporary resident workers")
		if len(again) != len(first) {
			t.Fatalf("variant count changed between runs: %d vs %d", len(first), len(again))
		}
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("variant order changed between runs at %d: %q vs %q", j, first[j], again[j])
			}
		}
	}
}

func TestLoadSynonymTableYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	content := "benefit period:\n  - bp\nwaiting period:\n  - wp\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write table: %v", err)
	}

	table, err := loadSynonymTable(path)
	if err != nil {
		t.Fatalf("loadSynonymTable() error = %v", err)
	}
	if len(table["benefit period"]) != 1 || table["benefit period"][0] != "bp" {
		t.Fatalf("unexpected table contents: %v", table)
	}
}
