package neo4j

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
	"github.com/kirillkom/benefits-navigator/internal/infrastructure/resilience"
)

// Store runs the graph tier against a Neo4j provisions graph. Provision
// nodes carry the same metadata as the search index; CROSS_REFERENCES and
// AMENDED_BY edges link related provisions.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	exec     *resilience.Executor
	logger   *slog.Logger
}

func New(uri, username, password, database string, exec *resilience.Executor, logger *slog.Logger) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Store{
		driver:   driver,
		database: database,
		exec:     exec,
		logger:   logger,
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// FulltextSearch queries the provision_text fulltext index over title and
// content.
func (s *Store) FulltextSearch(ctx context.Context, text string, size int) ([]domain.RetrievedDocument, error) {
	const query = `
CALL db.index.fulltext.queryNodes('provision_text', $text)
YIELD node, score
RETURN node.id AS id, node.title AS title, node.citation AS citation,
       node.jurisdiction AS jurisdiction, node.program AS program,
       node.language AS language, node.snippet AS snippet, score
LIMIT $size`

	return s.run(ctx, "graph fulltext", query, map[string]any{
		"text": text,
		"size": size,
	})
}

// Traverse expands outward from the best fulltext matches through
// cross-reference edges, up to maxDepth hops. Scores decay with distance so
// directly matching provisions outrank their neighbours.
func (s *Store) Traverse(ctx context.Context, seedText string, maxDepth, size int) ([]domain.RetrievedDocument, error) {
	// Variable-length patterns cannot take the depth as a parameter.
	query := fmt.Sprintf(`
CALL db.index.fulltext.queryNodes('provision_text', $text)
YIELD node, score
MATCH (node)-[:CROSS_REFERENCES|AMENDED_BY*1..%d]-(related:Provision)
RETURN DISTINCT related.id AS id, related.title AS title, related.citation AS citation,
       related.jurisdiction AS jurisdiction, related.program AS program,
       related.language AS language, related.snippet AS snippet,
       score * 0.5 AS score
LIMIT $size`, maxDepth)

	return s.run(ctx, "graph traverse", query, map[string]any{
		"text": seedText,
		"size": size,
	})
}

func (s *Store) run(ctx context.Context, operation, query string, params map[string]any) ([]domain.RetrievedDocument, error) {
	var docs []domain.RetrievedDocument
	fn := func(ctx context.Context) error {
		result, err := neo4j.ExecuteQuery(ctx, s.driver, query, params,
			neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(s.database),
			neo4j.ExecuteQueryWithReadersRouting(),
		)
		if err != nil {
			return err
		}
		docs = docs[:0]
		for _, record := range result.Records {
			docs = append(docs, recordToDocument(record.AsMap()))
		}
		return nil
	}

	var err error
	if s.exec != nil {
		err = s.exec.Execute(ctx, operation, fn, classifyGraphError)
	} else {
		err = fn(ctx)
	}
	if err != nil {
		return nil, mapGraphError(operation, err)
	}
	s.logger.Debug("graph_query_complete", "operation", operation, "results", len(docs))
	return docs, nil
}

func recordToDocument(values map[string]any) domain.RetrievedDocument {
	score := asFloat(values["score"])
	return domain.RetrievedDocument{
		ID:           asString(values["id"]),
		Title:        asString(values["title"]),
		Citation:     asString(values["citation"]),
		Jurisdiction: asString(values["jurisdiction"]),
		Program:      asString(values["program"]),
		Language:     asString(values["language"]),
		Snippet:      asString(values["snippet"]),
		Score:        score,
		Breakdown:    &domain.ScoreBreakdown{Lexical: score},
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return 0
	}
}
