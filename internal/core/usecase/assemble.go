package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

// assembleContext formats the winning tier's documents into one size-bounded
// blob. Documents are taken score-descending; when the combined text would
// exceed maxChars, whole documents are dropped from the tail so citation text
// is never cut mid-document.
func assembleContext(docs []domain.RetrievedDocument, tier, maxDocs, maxChars int) domain.ContextBundle {
	ordered := make([]domain.RetrievedDocument, len(docs))
	copy(ordered, docs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return ordered[i].ID < ordered[j].ID
	})

	if maxDocs > 0 && len(ordered) > maxDocs {
		ordered = ordered[:maxDocs]
	}

	entries := make([]string, len(ordered))
	total := 0
	for i, doc := range ordered {
		entries[i] = formatContextEntry(i+1, doc)
		total += len(entries[i])
	}

	for maxChars > 0 && total > maxChars && len(ordered) > 0 {
		last := len(ordered) - 1
		total -= len(entries[last])
		ordered = ordered[:last]
		entries = entries[:last]
	}

	return domain.ContextBundle{
		Docs: ordered,
		Text: strings.Join(entries, ""),
		Tier: tier,
	}
}

func formatContextEntry(position int, doc domain.RetrievedDocument) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s", position, doc.Title)

	meta := make([]string, 0, 2)
	if doc.Citation != "" {
		meta = append(meta, doc.Citation)
	}
	if doc.Jurisdiction != "" {
		meta = append(meta, doc.Jurisdiction)
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(meta, ", "))
	}

	b.WriteString("\n")
	if doc.Snippet != "" {
		b.WriteString(doc.Snippet)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}
