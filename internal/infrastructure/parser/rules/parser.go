package rules

import (
	"regexp"
	"strings"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

// intentRule pairs a compiled pattern with the intent it signals. Rules are
// ordered; the first match wins, so the more specific patterns come first.
type intentRule struct {
	pattern    *regexp.Regexp
	intent     string
	confidence float64
}

var intentRules = []intentRule{
	{regexp.MustCompile(`(?i)\b(how much|what amount|combien|montant|rate of|weekly benefit)\b`), "amount", 0.85},
	// \b is ASCII-only in RE2, so alternatives that start or end on an
	// accented letter sit outside the boundary group.
	{regexp.MustCompile(`(?i)(\b(how long|duration|how many weeks|combien de semaines)\b|durée)`), "duration", 0.85},
	{regexp.MustCompile(`(?i)\b(how (do|can|to) .*apply|application|apply for|comment (faire une )?demande)\b`), "application", 0.8},
	// "eligib"/"admissib" are stem prefixes and must not end on a boundary.
	{regexp.MustCompile(`(?i)\b(am i eligible|eligib\w*|qualify|entitled|admissib\w*|ai-je droit)\b`), "eligibility", 0.8},
	{regexp.MustCompile(`(?i)\b(what (is|are)|define|meaning of|qu'est-ce que|que signifie)\b`), "definition", 0.7},
}

// facetRule maps a surface phrase onto a canonical facet value.
type facetRule struct {
	pattern *regexp.Regexp
	facet   string
	value   string
}

var facetRules = []facetRule{
	// Programs. Short aliases ride on word boundaries so "ei" never fires
	// inside "receiving".
	{regexp.MustCompile(`(?i)\b(employment insurance|assurance-emploi|\bei\b|a-e)\b`), domain.FacetProgram, "employment-insurance"},
	{regexp.MustCompile(`(?i)\b(canada pension plan|\bcpp\b|régime de pensions)\b`), domain.FacetProgram, "canada-pension-plan"},
	{regexp.MustCompile(`(?i)\b(old age security|\boas\b|sécurité de la vieillesse)\b`), domain.FacetProgram, "old-age-security"},
	{regexp.MustCompile(`(?i)\b(guaranteed income supplement|\bgis\b|supplément de revenu garanti)\b`), domain.FacetProgram, "guaranteed-income-supplement"},

	// Jurisdictions.
	{regexp.MustCompile(`(?i)\b(federal|fédéral)\b`), domain.FacetJurisdiction, "federal"},
	{regexp.MustCompile(`(?i)\bontario\b`), domain.FacetJurisdiction, "ontario"},
	{regexp.MustCompile(`(?i)\b(quebec|québec)\b`), domain.FacetJurisdiction, "quebec"},
	{regexp.MustCompile(`(?i)\b(british columbia|colombie-britannique)\b`), domain.FacetJurisdiction, "british-columbia"},
	{regexp.MustCompile(`(?i)\balberta\b`), domain.FacetJurisdiction, "alberta"},

	// Audiences.
	{regexp.MustCompile(`(?i)\b(temporary resident|foreign national|résident temporaire)\b`), domain.FacetAudience, "temporary-resident"},
	{regexp.MustCompile(`(?i)\b(permanent resident|résident permanent)\b`), domain.FacetAudience, "permanent-resident"},
	{regexp.MustCompile(`(?i)\b(self-employed|travailleur autonome)\b`), domain.FacetAudience, "self-employed"},
	{regexp.MustCompile(`(?i)(\bstudent\b|étudiant)`), domain.FacetAudience, "student"},
	{regexp.MustCompile(`(?i)\b(seasonal worker|travailleur saisonnier)\b`), domain.FacetAudience, "seasonal-worker"},
}

var keywordStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "can": {}, "do": {},
	"does": {}, "i": {}, "my": {}, "for": {}, "to": {}, "of": {}, "in": {},
	"on": {}, "what": {}, "how": {}, "who": {}, "and": {}, "or": {}, "am": {},
	"le": {}, "la": {}, "les": {}, "un": {}, "une": {}, "des": {}, "de": {},
	"est": {}, "que": {}, "qui": {}, "pour": {}, "je": {}, "mon": {}, "ma": {},
}

var wordRe = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}'-]*`)

// Parser derives intent, facet filters and keywords from the raw question
// with ordered regular-expression rules. No model call, no I/O; the same
// input always yields the same parse.
type Parser struct{}

func New() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(rawText string) domain.ParsedQuery {
	parsed := domain.ParsedQuery{
		Intent:           "general",
		IntentConfidence: 0.4,
		Filters:          domain.Filters{},
	}

	for _, rule := range intentRules {
		if rule.pattern.MatchString(rawText) {
			parsed.Intent = rule.intent
			parsed.IntentConfidence = rule.confidence
			break
		}
	}

	for _, rule := range facetRules {
		if !rule.pattern.MatchString(rawText) {
			continue
		}
		if !contains(parsed.Filters[rule.facet], rule.value) {
			parsed.Filters[rule.facet] = append(parsed.Filters[rule.facet], rule.value)
		}
	}

	parsed.Keywords = extractKeywords(rawText)
	return parsed
}

func extractKeywords(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, word := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if len(word) < 3 {
			continue
		}
		if _, stop := keywordStopwords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, word)
	}
	return out
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}
