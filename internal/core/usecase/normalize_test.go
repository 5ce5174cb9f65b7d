package usecase

import (
	"testing"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

func TestNormalizeQuestionCollapsesWhitespaceAndLowercases(t *testing.T) {
	normalized, lang := normalizeQuestion("  Can a Temporary   Resident apply\tfor EI?  ")
	if normalized != "can a temporary resident apply for ei?" {
		t.Fatalf("unexpected normalized text: %q", normalized)
	}
	if lang != domain.LanguageEnglish {
		t.Fatalf("expected english, got %s", lang)
	}
}

func TestNormalizeQuestionDetectsFrench(t *testing.T) {
	_, lang := normalizeQuestion("Est-ce que je suis admissible aux prestations pour les travailleurs?")
	if lang != domain.LanguageFrench {
		t.Fatalf("expected french, got %s", lang)
	}
}

func TestNormalizeQuestionEmptyInput(t *testing.T) {
	normalized, lang := normalizeQuestion("   ")
	if normalized != "" {
		t.Fatalf("expected empty normalized text, got %q", normalized)
	}
	if lang != domain.LanguageEnglish {
		t.Fatalf("expected english default, got %s", lang)
	}
}
