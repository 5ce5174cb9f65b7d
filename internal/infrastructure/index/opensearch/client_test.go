package opensearch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
	"github.com/kirillkom/benefits-navigator/internal/core/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const searchResponse = `{
  "hits": {
    "hits": [
      {
        "_id": "prov-7",
        "_score": 4.2,
        "_source": {
          "title": "Employment Insurance Act",
          "citation": "S.C. 1996, c. 23",
          "jurisdiction": "federal",
          "program": "employment-insurance",
          "language": "en",
          "content": "A claimant is not entitled to be paid benefits in a benefit period until..."
        },
        "highlight": {"content": ["A <em>claimant</em> is not entitled"]}
      }
    ]
  }
}`

func TestSearchBuildsWeightedBoolQuery(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/provisions/_search" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(searchResponse))
	}))
	defer server.Close()

	client := New(server.URL, "provisions", nil, testLogger())
	docs, err := client.Search(context.Background(), "waiting period", domain.Filters{
		domain.FacetProgram:  {"employment-insurance"},
		domain.FacetLanguage: {"en"},
	}, ports.IndexWeights{Title: 3.0, Content: 1.0}, 20)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(docs))
	}
	if docs[0].ID != "prov-7" || docs[0].Score != 4.2 {
		t.Fatalf("unexpected doc: %+v", docs[0])
	}
	if docs[0].Breakdown == nil || docs[0].Breakdown.Lexical != 4.2 {
		t.Fatalf("score must populate the lexical breakdown: %+v", docs[0].Breakdown)
	}
	if docs[0].Snippet != "A <em>claimant</em> is not entitled" {
		t.Fatalf("expected highlight snippet, got %q", docs[0].Snippet)
	}

	raw, _ := json.Marshal(captured)
	body := string(raw)
	if !strings.Contains(body, "title^3.0") {
		t.Fatalf("title weight missing from query: %s", body)
	}
	if !strings.Contains(body, `"terms":{"program":["employment-insurance"]}`) {
		t.Fatalf("program filter missing from query: %s", body)
	}
	if captured["size"].(float64) != 20 {
		t.Fatalf("size not forwarded: %v", captured["size"])
	}
}

func TestSearchDropsUnknownFacets(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"hits":{"hits":[]}}`))
	}))
	defer server.Close()

	client := New(server.URL, "provisions", nil, testLogger())
	_, err := client.Search(context.Background(), "q", domain.Filters{
		"sort_order": {"desc"},
	}, ports.IndexWeights{Title: 1.5, Content: 1.0}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	raw, _ := json.Marshal(captured)
	if strings.Contains(string(raw), "sort_order") {
		t.Fatalf("unknown facet leaked into the query: %s", raw)
	}
}

func TestSearchMapsBadRequestToMalformedFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"parsing_exception"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(server.URL, "provisions", nil, testLogger())
	_, err := client.Search(context.Background(), "q", nil, ports.IndexWeights{Title: 1, Content: 1}, 10)
	if !domain.IsKind(err, domain.ErrMalformedFilter) {
		t.Fatalf("expected ErrMalformedFilter, got %v", err)
	}
}

func TestSearchMapsServerErrorToUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "node down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "provisions", nil, testLogger())
	_, err := client.Search(context.Background(), "q", nil, ports.IndexWeights{Title: 1, Content: 1}, 10)
	if !domain.IsKind(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestSearchMapsConnectionRefusedToUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listens on the port anymore

	client := New(server.URL, "provisions", nil, testLogger())
	_, err := client.Search(context.Background(), "q", nil, ports.IndexWeights{Title: 1, Content: 1}, 10)
	if !domain.IsKind(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestSearchSnippetFallsBackToContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[{"_id":"p","_score":1,"_source":{"title":"T","content":"full provision text"}}]}}`))
	}))
	defer server.Close()

	client := New(server.URL, "provisions", nil, testLogger())
	docs, err := client.Search(context.Background(), "q", nil, ports.IndexWeights{Title: 1, Content: 1}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if docs[0].Snippet != "full provision text" {
		t.Fatalf("expected content fallback, got %q", docs[0].Snippet)
	}
}
