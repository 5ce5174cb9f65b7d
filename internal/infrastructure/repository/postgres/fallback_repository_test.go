package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

func newFallbackWithMock(t *testing.T) (*FallbackRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &FallbackRepository{db: db}, mock, func() { _ = db.Close() }
}

func provisionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "citation", "jurisdiction", "program", "language", "snippet", "rank"}).
		AddRow("prov-1", "Employment Insurance Act", "S.C. 1996, c. 23", "federal", "employment-insurance", "en", "snippet text", 0.42)
}

func TestFulltextSearchRanksByQuery(t *testing.T) {
	repo, mock, done := newFallbackWithMock(t)
	defer done()

	mock.ExpectQuery("websearch_to_tsquery").
		WithArgs("waiting period", 20).
		WillReturnRows(provisionRows())

	docs, err := repo.FulltextSearch(context.Background(), "waiting period", 20)
	if err != nil {
		t.Fatalf("FulltextSearch() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(docs))
	}
	if docs[0].ID != "prov-1" || docs[0].Score != 0.42 {
		t.Fatalf("unexpected doc: %+v", docs[0])
	}
	if docs[0].Breakdown.Lexical != 0.42 {
		t.Fatalf("rank must populate the lexical breakdown: %+v", docs[0].Breakdown)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFulltextSearchMapsConnectionFailure(t *testing.T) {
	repo, mock, done := newFallbackWithMock(t)
	defer done()

	mock.ExpectQuery("websearch_to_tsquery").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.FulltextSearch(context.Background(), "q", 10)
	if !domain.IsKind(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestFulltextSearchMapsDeadline(t *testing.T) {
	repo, mock, done := newFallbackWithMock(t)
	defer done()

	mock.ExpectQuery("websearch_to_tsquery").
		WillReturnError(context.DeadlineExceeded)

	_, err := repo.FulltextSearch(context.Background(), "q", 10)
	if !domain.IsKind(err, domain.ErrBackendTimeout) {
		t.Fatalf("expected ErrBackendTimeout, got %v", err)
	}
}

func TestMetadataSearchFiltersKnownFacetsOnly(t *testing.T) {
	repo, mock, done := newFallbackWithMock(t)
	defer done()

	mock.ExpectQuery(`jurisdiction IN \(\$1\) AND language IN \(\$2\)`).
		WithArgs("federal", "en", 10).
		WillReturnRows(provisionRows())

	docs, err := repo.MetadataSearch(context.Background(), domain.Filters{
		domain.FacetJurisdiction: {"federal"},
		domain.FacetLanguage:     {"en"},
		"sort_order":             {"desc"},
	}, 10)
	if err != nil {
		t.Fatalf("MetadataSearch() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(docs))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMetadataSearchWithoutFiltersListsRecent(t *testing.T) {
	repo, mock, done := newFallbackWithMock(t)
	defer done()

	mock.ExpectQuery(`ORDER BY updated_at DESC`).
		WithArgs(5).
		WillReturnRows(provisionRows())

	docs, err := repo.MetadataSearch(context.Background(), nil, 5)
	if err != nil {
		t.Fatalf("MetadataSearch() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(docs))
	}
}
