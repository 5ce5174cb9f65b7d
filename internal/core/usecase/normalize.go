package usecase

import (
	"strings"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

// frenchMarkers are common French function words; a handful of hits is enough
// to tag a question as French for an EN/FR corpus.
var frenchMarkers = map[string]struct{}{
	"le": {}, "la": {}, "les": {}, "un": {}, "une": {}, "des": {},
	"est": {}, "sont": {}, "que": {}, "qui": {}, "quoi": {}, "pour": {},
	"dans": {}, "avec": {}, "peut": {}, "puis": {}, "je": {}, "vous": {},
	"admissible": {}, "prestations": {}, "emploi": {},
}

var englishMarkers = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "can": {},
	"what": {}, "who": {}, "how": {}, "for": {}, "in": {}, "with": {},
	"i": {}, "you": {}, "eligible": {}, "benefits": {}, "apply": {},
}

// normalizeQuestion trims, collapses whitespace and lowercases the raw
// question, and tags its language.
func normalizeQuestion(raw string) (string, domain.Language) {
	fields := strings.Fields(strings.ToLower(raw))
	normalized := strings.Join(fields, " ")
	return normalized, detectLanguage(fields)
}

func detectLanguage(words []string) domain.Language {
	var fr, en int
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?'\"()")
		if _, ok := frenchMarkers[w]; ok {
			fr++
		}
		if _, ok := englishMarkers[w]; ok {
			en++
		}
	}
	if fr > en {
		return domain.LanguageFrench
	}
	return domain.LanguageEnglish
}
