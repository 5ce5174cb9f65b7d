package neo4j

import (
	"testing"
)

func TestRecordToDocumentMapsAllFields(t *testing.T) {
	doc := recordToDocument(map[string]any{
		"id":           "prov-3",
		"title":        "Employment Insurance Regulations",
		"citation":     "SOR/96-332",
		"jurisdiction": "federal",
		"program":      "employment-insurance",
		"language":     "en",
		"snippet":      "the waiting period...",
		"score":        2.5,
	})

	if doc.ID != "prov-3" || doc.Title != "Employment Insurance Regulations" {
		t.Fatalf("identity fields not mapped: %+v", doc)
	}
	if doc.Jurisdiction != "federal" || doc.Program != "employment-insurance" || doc.Language != "en" {
		t.Fatalf("facet fields not mapped: %+v", doc)
	}
	if doc.Score != 2.5 || doc.Breakdown.Lexical != 2.5 {
		t.Fatalf("score not mapped: %+v", doc)
	}
}

func TestRecordToDocumentToleratesMissingAndTypedValues(t *testing.T) {
	doc := recordToDocument(map[string]any{
		"id":    "prov-9",
		"score": int64(3),
	})
	if doc.ID != "prov-9" {
		t.Fatalf("id not mapped: %+v", doc)
	}
	if doc.Score != 3.0 {
		t.Fatalf("integer score must convert, got %v", doc.Score)
	}
	if doc.Title != "" || doc.Snippet != "" {
		t.Fatalf("missing fields must map to empty strings: %+v", doc)
	}
}
