package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
	"github.com/kirillkom/benefits-navigator/internal/core/ports"
)

type indexFake struct {
	strictDocs     []domain.RetrievedDocument
	strictErr      error
	relaxedDocs    []domain.RetrievedDocument
	relaxedErr     error
	relaxedByQuery map[string][]domain.RetrievedDocument

	strictQueries  []string
	relaxedQueries []string
}

func (f *indexFake) Search(_ context.Context, text string, _ domain.Filters, weights ports.IndexWeights, _ int) ([]domain.RetrievedDocument, error) {
	if weights.Title >= 3.0 {
		f.strictQueries = append(f.strictQueries, text)
		return f.strictDocs, f.strictErr
	}
	f.relaxedQueries = append(f.relaxedQueries, text)
	if f.relaxedErr != nil {
		return nil, f.relaxedErr
	}
	if f.relaxedByQuery != nil {
		return f.relaxedByQuery[text], nil
	}
	return f.relaxedDocs, nil
}

type graphFake struct {
	fulltextDocs []domain.RetrievedDocument
	fulltextErr  error
	traverseDocs []domain.RetrievedDocument
	traverseErr  error
}

func (f *graphFake) FulltextSearch(context.Context, string, int) ([]domain.RetrievedDocument, error) {
	return f.fulltextDocs, f.fulltextErr
}

func (f *graphFake) Traverse(context.Context, string, int, int) ([]domain.RetrievedDocument, error) {
	return f.traverseDocs, f.traverseErr
}

type relationalFake struct {
	fulltextDocs []domain.RetrievedDocument
	fulltextErr  error
	metaDocs     []domain.RetrievedDocument
	metaErr      error
}

func (f *relationalFake) FulltextSearch(context.Context, string, int) ([]domain.RetrievedDocument, error) {
	return f.fulltextDocs, f.fulltextErr
}

func (f *relationalFake) MetadataSearch(context.Context, domain.Filters, int) ([]domain.RetrievedDocument, error) {
	return f.metaDocs, f.metaErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(index ports.SearchIndex, graph ports.GraphStore, relational ports.RelationalStore) *TierOrchestrator {
	expander := newSynonymExpander(defaultSynonymTable, 5)
	return NewTierOrchestrator(index, graph, relational, expander, RetrievalConfig{
		TargetDocs:  10,
		MaxDocs:     10,
		MaxChars:    8000,
		Budget:      2 * time.Second,
		CallTimeout: 500 * time.Millisecond,
	}, discardLogger())
}

func makeDocs(n int, prefix string) []domain.RetrievedDocument {
	docs := make([]domain.RetrievedDocument, n)
	for i := range docs {
		docs[i] = domain.RetrievedDocument{
			ID:      fmt.Sprintf("%s-%d", prefix, i),
			Title:   fmt.Sprintf("Provision %d", i),
			Snippet: "some provision text",
			Score:   1.0 - float64(i)*0.05,
		}
	}
	return docs
}

func testQuery(question string) domain.Query {
	normalized, lang := normalizeQuestion(question)
	return domain.Query{
		Raw:              question,
		Normalized:       normalized,
		Language:         lang,
		IntentConfidence: 0.8,
		Filters: domain.Filters{
			domain.FacetProgram:  {"employment-insurance"},
			domain.FacetLanguage: {"en"},
		},
	}
}

func TestRetrieveTier1SatisfiedStopsImmediately(t *testing.T) {
	index := &indexFake{strictDocs: makeDocs(12, "idx")}
	orch := newTestOrchestrator(index, &graphFake{}, &relationalFake{})

	bundle, attempts := orch.Retrieve(context.Background(), testQuery("Can a temporary resident apply for employment insurance?"))

	if len(attempts) != 1 {
		t.Fatalf("expected exactly 1 tier attempt, got %d", len(attempts))
	}
	if attempts[0].Tier != 1 || !attempts[0].Success {
		t.Fatalf("expected successful tier 1 attempt, got %+v", attempts[0])
	}
	if attempts[0].ResultCount != 12 {
		t.Fatalf("expected result count 12, got %d", attempts[0].ResultCount)
	}
	if bundle.Tier != 1 {
		t.Fatalf("expected bundle tier 1, got %d", bundle.Tier)
	}
	if len(bundle.Docs) != 10 {
		t.Fatalf("expected bundle capped at 10 docs, got %d", len(bundle.Docs))
	}
	if len(index.strictQueries) != 1 {
		t.Fatalf("tier 1 must use the original query only, got %v", index.strictQueries)
	}
}

func TestRetrieveAllTiersExhausted(t *testing.T) {
	orch := newTestOrchestrator(&indexFake{}, &graphFake{}, &relationalFake{})

	bundle, attempts := orch.Retrieve(context.Background(), testQuery("Are Martian colonists eligible for obscure-benefit-X?"))

	if len(attempts) != 5 {
		t.Fatalf("expected 5 tier attempts, got %d", len(attempts))
	}
	for i, attempt := range attempts {
		if attempt.Tier != i+1 {
			t.Fatalf("tier indices must be strictly increasing from 1, got %+v", attempts)
		}
		if attempt.Success {
			t.Fatalf("no tier should report success, got %+v", attempt)
		}
	}
	if len(bundle.Docs) != 0 {
		t.Fatalf("expected empty bundle, got %d docs", len(bundle.Docs))
	}
	if bundle.Tier != 5 {
		t.Fatalf("expected terminal tier 5, got %d", bundle.Tier)
	}

	breakdown := scoreConfidence(nil, bundle, "I don't know; the available material does not cover this.", 0.5)
	if breakdown.Final >= 0.3 {
		t.Fatalf("expected low final confidence, got %.3f", breakdown.Final)
	}
}

func TestRetrieveBackendFailuresAdvanceToGraphTier(t *testing.T) {
	timeoutErr := domain.WrapError(domain.ErrBackendTimeout, "index search", context.DeadlineExceeded)
	index := &indexFake{strictErr: timeoutErr, relaxedErr: timeoutErr}
	graph := &graphFake{fulltextDocs: makeDocs(4, "graph")}
	orch := newTestOrchestrator(index, graph, &relationalFake{})

	bundle, attempts := orch.Retrieve(context.Background(), testQuery("how do benefit periods work"))

	if len(attempts) != 3 {
		t.Fatalf("expected 3 tier attempts, got %d", len(attempts))
	}
	if attempts[0].Success || attempts[0].Error == "" {
		t.Fatalf("tier 1 attempt should record the failure, got %+v", attempts[0])
	}
	if attempts[1].Success {
		t.Fatalf("tier 2 attempt should record the failure, got %+v", attempts[1])
	}
	if !attempts[2].Success || attempts[2].ResultCount != 4 {
		t.Fatalf("tier 3 should succeed with 4 docs, got %+v", attempts[2])
	}
	if bundle.Tier != 3 || len(bundle.Docs) != 4 {
		t.Fatalf("expected tier 3 bundle with 4 docs, got tier=%d docs=%d", bundle.Tier, len(bundle.Docs))
	}
}

func TestRetrievePartialTier1FallsThroughAndKeepsBest(t *testing.T) {
	// Tier 1 finds material but below target; if nothing later satisfies,
	// the best gathered results are still returned under the terminal tier.
	index := &indexFake{strictDocs: makeDocs(6, "idx")}
	orch := newTestOrchestrator(index, &graphFake{}, &relationalFake{})

	bundle, attempts := orch.Retrieve(context.Background(), testQuery("quirky question"))

	if len(attempts) != 5 {
		t.Fatalf("expected all 5 tiers attempted, got %d", len(attempts))
	}
	if bundle.Tier != 5 {
		t.Fatalf("expected terminal tier 5, got %d", bundle.Tier)
	}
	if len(bundle.Docs) != 6 {
		t.Fatalf("expected the 6 best-gathered docs, got %d", len(bundle.Docs))
	}
}

func TestRetrieveTier2StopsOnFirstNonEmpty(t *testing.T) {
	index := &indexFake{relaxedDocs: makeDocs(3, "idx")}
	orch := newTestOrchestrator(index, &graphFake{}, &relationalFake{})

	bundle, attempts := orch.Retrieve(context.Background(), testQuery("maternity benefits while studying"))

	if len(attempts) != 2 {
		t.Fatalf("expected 2 tier attempts, got %d", len(attempts))
	}
	if !attempts[1].Success || attempts[1].Tier != 2 {
		t.Fatalf("expected successful tier 2, got %+v", attempts[1])
	}
	if bundle.Tier != 2 || len(bundle.Docs) != 3 {
		t.Fatalf("expected tier 2 bundle with 3 docs, got tier=%d docs=%d", bundle.Tier, len(bundle.Docs))
	}
}

func TestRetrieveRecordsWinningSynonymVariant(t *testing.T) {
	index := &indexFake{relaxedByQuery: map[string][]domain.RetrievedDocument{
		"apply for ei": makeDocs(2, "idx"),
	}}
	orch := newTestOrchestrator(index, &graphFake{}, &relationalFake{})

	_, attempts := orch.Retrieve(context.Background(), testQuery("apply for employment insurance"))

	if len(attempts) != 2 {
		t.Fatalf("expected 2 tier attempts, got %d", len(attempts))
	}
	if attempts[1].QueryVariant != "apply for ei" {
		t.Fatalf("expected winning variant recorded, got %q", attempts[1].QueryVariant)
	}
}

func TestRetrieveCancelledContextStillRecordsFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := newTestOrchestrator(&indexFake{strictErr: context.Canceled}, &graphFake{}, &relationalFake{})
	bundle, attempts := orch.Retrieve(ctx, testQuery("anything"))

	if len(attempts) != 1 {
		t.Fatalf("expected exactly 1 attempt under a cancelled context, got %d", len(attempts))
	}
	if attempts[0].Success {
		t.Fatalf("attempt under cancelled context must not succeed")
	}
	if len(bundle.Docs) != 0 {
		t.Fatalf("expected empty bundle, got %d docs", len(bundle.Docs))
	}
}

func TestNextStateTransitions(t *testing.T) {
	cases := []struct {
		state     tierState
		satisfied bool
		want      tierState
	}{
		{stateTier1, true, stateDone},
		{stateTier1, false, stateTier2},
		{stateTier2, true, stateDone},
		{stateTier2, false, stateTier3},
		{stateTier3, true, stateDone},
		{stateTier3, false, stateTier4},
		{stateTier4, true, stateDone},
		{stateTier4, false, stateTier5},
		{stateTier5, true, stateDone},
		{stateTier5, false, stateDone},
		{stateDone, false, stateDone},
	}

	for _, tc := range cases {
		if got := nextState(tc.state, tc.satisfied); got != tc.want {
			t.Fatalf("nextState(%d, %v) = %d, want %d", tc.state, tc.satisfied, got, tc.want)
		}
	}
}

func TestRetrieveGraphTierSurvivesTraverseFailure(t *testing.T) {
	graph := &graphFake{
		fulltextDocs: makeDocs(2, "graph"),
		traverseErr:  domain.WrapError(domain.ErrBackendUnavailable, "traverse", fmt.Errorf("connection refused")),
	}
	orch := newTestOrchestrator(&indexFake{}, graph, &relationalFake{})

	bundle, attempts := orch.Retrieve(context.Background(), testQuery("related provisions"))

	if bundle.Tier != 3 {
		t.Fatalf("expected tier 3 to absorb the partial failure, got tier %d", bundle.Tier)
	}
	if attempts[2].ResultCount != 2 {
		t.Fatalf("expected 2 docs from fulltext alone, got %d", attempts[2].ResultCount)
	}
}
