package usecase

import (
	"testing"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

func TestFuseDocumentsRRFDeduplicatesByID(t *testing.T) {
	primary := []domain.RetrievedDocument{
		{ID: "doc-1", Title: "Employment Insurance Act", Score: 0.9},
		{ID: "doc-2", Title: "EI Regulations", Score: 0.8},
	}
	secondary := []domain.RetrievedDocument{
		{ID: "doc-2", Title: "EI Regulations", Score: 1.0},
		{ID: "doc-3", Title: "Digest of Benefit Entitlement", Score: 0.7},
	}

	fused := fuseDocumentsRRF(primary, secondary, 60)
	if len(fused) != 3 {
		t.Fatalf("expected 3 fused documents, got %d", len(fused))
	}
	if fused[0].ID != "doc-2" {
		t.Fatalf("expected doc-2 first after RRF fusion, got %s", fused[0].ID)
	}
}

func TestFuseDocumentsRRFTieBreakStable(t *testing.T) {
	primary := []domain.RetrievedDocument{{ID: "doc-b", Title: "B"}}
	secondary := []domain.RetrievedDocument{{ID: "doc-a", Title: "A"}}

	fused := fuseDocumentsRRF(primary, secondary, 1000)
	if len(fused) != 2 {
		t.Fatalf("expected 2 fused documents, got %d", len(fused))
	}
	if fused[0].ID != "doc-a" {
		t.Fatalf("expected tie-break by document id, got first=%s", fused[0].ID)
	}
}

func TestFuseDocumentsRRFPrefersRicherFields(t *testing.T) {
	primary := []domain.RetrievedDocument{{ID: "doc-1", Title: "Act"}}
	secondary := []domain.RetrievedDocument{{ID: "doc-1", Title: "Act", Snippet: "text", Citation: "S.C. 1996, c. 23"}}

	fused := fuseDocumentsRRF(primary, secondary, 60)
	if len(fused) != 1 {
		t.Fatalf("expected 1 fused document, got %d", len(fused))
	}
	if fused[0].Snippet != "text" || fused[0].Citation == "" {
		t.Fatalf("fusion dropped richer fields: %+v", fused[0])
	}
}
