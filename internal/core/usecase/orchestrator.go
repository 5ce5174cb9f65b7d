package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
	"github.com/kirillkom/benefits-navigator/internal/core/ports"
)

// tierState drives the fallback sequence as an explicit finite-state machine.
type tierState int

const (
	stateTier1 tierState = iota + 1
	stateTier2
	stateTier3
	stateTier4
	stateTier5
	stateDone
)

// nextState is the single transition function of the fallback FSM. A
// satisfied stopping rule ends the run; tier 5 is terminal either way.
func nextState(state tierState, satisfied bool) tierState {
	if satisfied {
		return stateDone
	}
	switch state {
	case stateTier1:
		return stateTier2
	case stateTier2:
		return stateTier3
	case stateTier3:
		return stateTier4
	case stateTier4:
		return stateTier5
	default:
		return stateDone
	}
}

// RetrievalConfig carries the orchestration policy constants. All defaults
// come from config; none of them is hard law.
type RetrievalConfig struct {
	TargetDocs    int
	MaxDocs       int
	MaxChars      int
	Budget        time.Duration
	CallTimeout   time.Duration
	GraphMaxDepth int
}

func (c RetrievalConfig) normalize() RetrievalConfig {
	out := c
	if out.TargetDocs <= 0 {
		out.TargetDocs = 10
	}
	if out.MaxDocs <= 0 {
		out.MaxDocs = 10
	}
	if out.MaxChars <= 0 {
		out.MaxChars = 8000
	}
	if out.Budget <= 0 {
		out.Budget = 8 * time.Second
	}
	if out.CallTimeout <= 0 {
		out.CallTimeout = 2 * time.Second
	}
	if out.GraphMaxDepth <= 0 {
		out.GraphMaxDepth = 2
	}
	return out
}

// TierOrchestrator executes the five retrieval tiers strictly in order. Tiers
// never run concurrently: each subsequent tier is a deliberately more
// expensive, more permissive fallback, and running them speculatively would
// waste backend capacity on the common case where tier 1 succeeds.
type TierOrchestrator struct {
	tiers  []tierStrategy
	cfg    RetrievalConfig
	logger *slog.Logger
}

func NewTierOrchestrator(
	index ports.SearchIndex,
	graph ports.GraphStore,
	relational ports.RelationalStore,
	expander *synonymExpander,
	cfg RetrievalConfig,
	logger *slog.Logger,
) *TierOrchestrator {
	cfg = cfg.normalize()
	candidateSize := cfg.TargetDocs * 2

	return &TierOrchestrator{
		tiers: []tierStrategy{
			&indexStrictTier{index: index, target: cfg.TargetDocs, size: candidateSize},
			&indexRelaxedTier{index: index, expander: expander, size: candidateSize},
			&graphTier{graph: graph, expander: expander, maxDepth: cfg.GraphMaxDepth, size: candidateSize},
			&relationalTier{store: relational, expander: expander, size: candidateSize},
			&metadataTier{store: relational, size: candidateSize},
		},
		cfg:    cfg,
		logger: logger,
	}
}

// Retrieve runs the fallback sequence for one query. Backend errors are
// absorbed into failed attempt records and advance the sequence; the caller
// never sees a retrieval-side error. When the wall-clock budget or the
// caller's deadline runs out mid-sequence, the best results gathered so far
// are returned instead of an error.
func (o *TierOrchestrator) Retrieve(ctx context.Context, q domain.Query) (domain.ContextBundle, []domain.TierAttemptRecord) {
	deadline := time.Now().Add(o.cfg.Budget)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	attempts := make([]domain.TierAttemptRecord, 0, len(o.tiers))
	var bestDocs []domain.RetrievedDocument

	for state := stateTier1; state != stateDone; {
		// The first tier always gets its attempt so every run produces at
		// least one record, even under an already-expired deadline.
		if len(attempts) > 0 && (ctx.Err() != nil || !time.Now().Before(deadline)) {
			o.logger.Warn("retrieval_budget_exhausted",
				"tiers_attempted", len(attempts),
				"best_result_count", len(bestDocs),
			)
			break
		}

		strategy := o.tiers[int(state)-1]
		docs, record, satisfied := o.runTier(ctx, strategy, q, deadline)
		attempts = append(attempts, record)

		if satisfied {
			o.logger.Info("retrieval_satisfied",
				"tier", record.Tier,
				"result_count", record.ResultCount,
				"variant", record.QueryVariant,
				"duration_ms", durationMS(record.Elapsed),
			)
			return assembleContext(docs, record.Tier, o.cfg.MaxDocs, o.cfg.MaxChars), attempts
		}
		if len(docs) > len(bestDocs) {
			bestDocs = docs
		}
		state = nextState(state, satisfied)
	}

	// No tier satisfied its stopping rule; the bundle is annotated with the
	// terminal tier index and scored as low confidence downstream.
	return assembleContext(bestDocs, int(stateTier5), o.cfg.MaxDocs, o.cfg.MaxChars), attempts
}

func (o *TierOrchestrator) runTier(
	ctx context.Context,
	strategy tierStrategy,
	q domain.Query,
	deadline time.Time,
) ([]domain.RetrievedDocument, domain.TierAttemptRecord, bool) {
	tier := strategy.Tier()
	filters := relaxFilters(q.Filters, tier)
	dropped, retained := relaxationDiff(q.Filters, filters)
	o.logger.Debug("tier_filter_relaxation",
		"tier", tier,
		"dropped_facets", dropped,
		"retained_facets", retained,
	)

	start := time.Now()
	variants := strategy.Variants(q.Normalized)

	var (
		tierDocs    []domain.RetrievedDocument
		variantUsed = variants[0]
		satisfied   bool
		errText     string
	)

	for i, variant := range variants {
		if i > 0 && (ctx.Err() != nil || !time.Now().Before(deadline)) {
			break
		}

		callCtx, cancel := context.WithTimeout(ctx, o.callBudget(deadline))
		docs, err := strategy.Fetch(callCtx, variant, filters)
		cancel()

		if err != nil {
			// A backend failure is final for this tier; there is no retry
			// within a tier, the sequence simply advances.
			errText = err.Error()
			variantUsed = variant
			tierDocs = nil
			o.logger.Warn("tier_backend_error", "tier", tier, "variant", variant, "error", err)
			break
		}

		if len(docs) > len(tierDocs) {
			tierDocs = docs
			variantUsed = variant
		}
		if strategy.Satisfied(len(docs)) {
			tierDocs = docs
			variantUsed = variant
			satisfied = true
			break
		}
	}

	record := domain.TierAttemptRecord{
		Tier:         tier,
		Filters:      filters,
		QueryVariant: variantUsed,
		Elapsed:      time.Since(start),
		ResultCount:  len(tierDocs),
		Success:      satisfied && errText == "",
		Error:        errText,
	}
	return tierDocs, record, satisfied
}

func (o *TierOrchestrator) callBudget(deadline time.Time) time.Duration {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		// Let the adapter fail fast with a deadline error instead of
		// blocking on a dead request.
		return time.Millisecond
	}
	if remaining < o.cfg.CallTimeout {
		return remaining
	}
	return o.cfg.CallTimeout
}

func durationMS(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
