package usecase

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultSynonymTable maps domain terms to their synonyms and abbreviations.
// Entries are expanded bidirectionally at construction time.
var defaultSynonymTable = map[string][]string{
	"employment insurance":         {"ei"},
	"canada pension plan":          {"cpp"},
	"old age security":             {"oas"},
	"guaranteed income supplement": {"gis"},
	"social insurance number":      {"sin"},
	"record of employment":         {"roe"},
	"temporary resident":           {"foreign national"},
	"maternity benefits":           {"parental benefits"},
}

// synonymExpander rewrites a query into variant phrasings. Deterministic:
// variants follow sorted table-key order, and the original text is always
// the first variant.
type synonymExpander struct {
	table       map[string][]string
	keys        []string
	patterns    map[string]*regexp.Regexp
	maxVariants int
}

func newSynonymExpander(table map[string][]string, maxVariants int) *synonymExpander {
	if maxVariants <= 0 {
		maxVariants = 5
	}
	bidirectional := make(map[string][]string, len(table)*2)
	add := func(term, synonym string) {
		term = strings.ToLower(strings.TrimSpace(term))
		synonym = strings.ToLower(strings.TrimSpace(synonym))
		if term == "" || synonym == "" || term == synonym {
			return
		}
		for _, existing := range bidirectional[term] {
			if existing == synonym {
				return
			}
		}
		bidirectional[term] = append(bidirectional[term], synonym)
	}
	for term, synonyms := range table {
		for _, synonym := range synonyms {
			add(term, synonym)
			add(synonym, term)
		}
	}

	keys := make([]string, 0, len(bidirectional))
	patterns := make(map[string]*regexp.Regexp, len(bidirectional))
	for key := range bidirectional {
		keys = append(keys, key)
		// Whole-word match only: "ei" must not rewrite the middle of
		// "receiving".
		patterns[key] = regexp.MustCompile(`\b` + regexp.QuoteMeta(key) + `\b`)
	}
	sort.Strings(keys)
	for _, key := range keys {
		sort.Strings(bidirectional[key])
	}

	return &synonymExpander{
		table:       bidirectional,
		keys:        keys,
		patterns:    patterns,
		maxVariants: maxVariants,
	}
}

// Expand returns between 1 and maxVariants variants; index 0 is always the
// original text.
func (e *synonymExpander) Expand(text string) []string {
	variants := []string{text}
	seen := map[string]struct{}{text: {}}

	lower := strings.ToLower(text)
	for _, term := range e.keys {
		if len(variants) >= e.maxVariants {
			break
		}
		pattern := e.patterns[term]
		if !pattern.MatchString(lower) {
			continue
		}
		for _, synonym := range e.table[term] {
			variant := pattern.ReplaceAllString(lower, synonym)
			if _, ok := seen[variant]; ok {
				continue
			}
			seen[variant] = struct{}{}
			variants = append(variants, variant)
			if len(variants) >= e.maxVariants {
				break
			}
		}
	}
	return variants
}

// loadSynonymTable reads a term -> synonyms mapping from a YAML file.
func loadSynonymTable(path string) (map[string][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonym table: %w", err)
	}
	var table map[string][]string
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parse synonym table: %w", err)
	}
	return table, nil
}
