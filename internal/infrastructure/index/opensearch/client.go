package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
	"github.com/kirillkom/benefits-navigator/internal/core/ports"
	"github.com/kirillkom/benefits-navigator/internal/infrastructure/resilience"
)

// facetFields maps retrieval facets onto keyword fields of the provisions
// index. Unknown facets are dropped rather than sent; the index would reject
// them with a 400.
var facetFields = map[string]string{
	domain.FacetProgram:      "program",
	domain.FacetJurisdiction: "jurisdiction",
	domain.FacetAudience:     "audience",
	domain.FacetLanguage:     "language",
}

// Client queries an OpenSearch provisions index over its REST API. Both the
// strict and the relaxed tiers run through the same Search call; field
// weighting is the only thing that differs between them.
type Client struct {
	baseURL    string
	index      string
	httpClient *http.Client
	exec       *resilience.Executor
	logger     *slog.Logger
}

func New(baseURL, index string, exec *resilience.Executor, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		index:      index,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		exec:       exec,
		logger:     logger,
	}
}

func (c *Client) Search(
	ctx context.Context,
	text string,
	filters domain.Filters,
	weights ports.IndexWeights,
	size int,
) ([]domain.RetrievedDocument, error) {
	reqBody := buildSearchBody(text, filters, weights, size)

	var docs []domain.RetrievedDocument
	run := func(ctx context.Context) error {
		var err error
		docs, err = c.search(ctx, reqBody)
		return err
	}

	var err error
	if c.exec != nil {
		err = c.exec.Execute(ctx, "index search", run, classifyIndexError)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return nil, mapIndexError("index search", err)
	}
	return docs, nil
}

func buildSearchBody(text string, filters domain.Filters, weights ports.IndexWeights, size int) map[string]any {
	boolQuery := map[string]any{}

	if strings.TrimSpace(text) != "" {
		boolQuery["must"] = []map[string]any{
			{
				"multi_match": map[string]any{
					"query": text,
					"fields": []string{
						fmt.Sprintf("title^%.1f", weights.Title),
						fmt.Sprintf("content^%.1f", weights.Content),
					},
				},
			},
		}
	}

	var filterClauses []map[string]any
	for _, facet := range filters.Facets() {
		field, ok := facetFields[facet]
		if !ok {
			continue
		}
		values := filters[facet]
		if len(values) == 0 {
			continue
		}
		filterClauses = append(filterClauses, map[string]any{
			"terms": map[string]any{field: values},
		})
	}
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	return map[string]any{
		"size":    size,
		"query":   map[string]any{"bool": boolQuery},
		"_source": []string{"title", "citation", "jurisdiction", "program", "language", "content"},
		"highlight": map[string]any{
			"fields": map[string]any{
				"content": map[string]any{"fragment_size": 300, "number_of_fragments": 1},
			},
		},
	}
}

func (c *Client) search(ctx context.Context, reqBody map[string]any) ([]domain.RetrievedDocument, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/%s/_search", c.baseURL, c.index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opensearch search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &statusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	var searchResp struct {
		Hits struct {
			Hits []struct {
				ID     string  `json:"_id"`
				Score  float64 `json:"_score"`
				Source struct {
					Title        string `json:"title"`
					Citation     string `json:"citation"`
					Jurisdiction string `json:"jurisdiction"`
					Program      string `json:"program"`
					Language     string `json:"language"`
					Content      string `json:"content"`
				} `json:"_source"`
				Highlight map[string][]string `json:"highlight"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.RetrievedDocument, 0, len(searchResp.Hits.Hits))
	for _, hit := range searchResp.Hits.Hits {
		snippet := firstHighlight(hit.Highlight, "content")
		if snippet == "" {
			snippet = truncate(hit.Source.Content, 300)
		}
		out = append(out, domain.RetrievedDocument{
			ID:           hit.ID,
			Title:        hit.Source.Title,
			Citation:     hit.Source.Citation,
			Jurisdiction: hit.Source.Jurisdiction,
			Program:      hit.Source.Program,
			Language:     hit.Source.Language,
			Snippet:      snippet,
			Score:        hit.Score,
			Breakdown:    &domain.ScoreBreakdown{Lexical: hit.Score},
		})
	}
	return out, nil
}

func firstHighlight(highlight map[string][]string, field string) string {
	fragments, ok := highlight[field]
	if !ok || len(fragments) == 0 {
		return ""
	}
	return fragments[0]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
