package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

// facetColumns maps retrieval facets onto provisions columns. Facets outside
// this map never reach SQL.
var facetColumns = map[string]string{
	domain.FacetProgram:      "program",
	domain.FacetJurisdiction: "jurisdiction",
	domain.FacetAudience:     "audience",
	domain.FacetLanguage:     "language",
}

// FallbackRepository serves the last two retrieval tiers from the relational
// copy of the corpus: websearch fulltext when the index and the graph came up
// empty, and pure metadata listing as the final net.
type FallbackRepository struct {
	db *sql.DB
}

func NewFallbackRepository(db *sql.DB) *FallbackRepository {
	return &FallbackRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *FallbackRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS provisions (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	citation TEXT NOT NULL DEFAULT '',
	jurisdiction TEXT NOT NULL DEFAULT '',
	program TEXT NOT NULL DEFAULT '',
	audience TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT 'en',
	content TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	tsv tsvector GENERATED ALWAYS AS (to_tsvector('english', title || ' ' || content)) STORED
);

CREATE INDEX IF NOT EXISTS idx_provisions_tsv ON provisions USING GIN (tsv);
CREATE INDEX IF NOT EXISTS idx_provisions_program ON provisions(program);
CREATE INDEX IF NOT EXISTS idx_provisions_jurisdiction ON provisions(jurisdiction);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *FallbackRepository) FulltextSearch(ctx context.Context, text string, size int) ([]domain.RetrievedDocument, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, citation, jurisdiction, program, language,
       LEFT(content, 300) AS snippet,
       ts_rank(tsv, websearch_to_tsquery('english', $1)) AS rank
FROM provisions
WHERE tsv @@ websearch_to_tsquery('english', $1)
ORDER BY rank DESC
LIMIT $2
`, text, size)
	if err != nil {
		return nil, mapStoreError("relational fulltext", err)
	}
	defer rows.Close()

	return scanProvisions(rows, "relational fulltext")
}

func (r *FallbackRepository) MetadataSearch(ctx context.Context, filters domain.Filters, size int) ([]domain.RetrievedDocument, error) {
	var clauses []string
	var args []any

	for _, facet := range filters.Facets() {
		column, ok := facetColumns[facet]
		if !ok {
			continue
		}
		values := filters[facet]
		if len(values) == 0 {
			continue
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			args = append(args, v)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ",")))
	}

	query := `
SELECT id, title, citation, jurisdiction, program, language,
       LEFT(content, 300) AS snippet,
       0.0 AS rank
FROM provisions
`
	if len(clauses) > 0 {
		query += "WHERE " + strings.Join(clauses, " AND ") + "\n"
	}
	args = append(args, size)
	query += fmt.Sprintf("ORDER BY updated_at DESC\nLIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapStoreError("metadata search", err)
	}
	defer rows.Close()

	return scanProvisions(rows, "metadata search")
}

func scanProvisions(rows *sql.Rows, op string) ([]domain.RetrievedDocument, error) {
	var out []domain.RetrievedDocument
	for rows.Next() {
		var doc domain.RetrievedDocument
		if err := rows.Scan(
			&doc.ID, &doc.Title, &doc.Citation, &doc.Jurisdiction,
			&doc.Program, &doc.Language, &doc.Snippet, &doc.Score,
		); err != nil {
			return nil, fmt.Errorf("scan provision: %w", err)
		}
		doc.Breakdown = &domain.ScoreBreakdown{Lexical: doc.Score}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreError(op, err)
	}
	return out, nil
}

func mapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsRetrievalKind(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrBackendTimeout, op, err)
	}
	return domain.WrapError(domain.ErrBackendUnavailable, op, err)
}
