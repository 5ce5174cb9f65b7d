package neo4j

import (
	"context"
	"errors"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
	"github.com/kirillkom/benefits-navigator/internal/infrastructure/resilience"
)

// isClientError reports whether the server rejected the request itself, per
// the status code classification ("Neo.ClientError.*" covers bad Cypher and
// missing indexes).
func isClientError(err error) bool {
	var neoErr *neo4j.Neo4jError
	return errors.As(err, &neoErr) && strings.HasPrefix(neoErr.Code, "Neo.ClientError")
}

func classifyGraphError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
	if neo4j.IsRetryable(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	if isClientError(err) {
		// Bad Cypher or a missing index; retrying cannot fix the query.
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}

func mapGraphError(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsRetrievalKind(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrBackendTimeout, op, err)
	}
	if isClientError(err) {
		return domain.WrapError(domain.ErrMalformedFilter, op, err)
	}
	return domain.WrapError(domain.ErrBackendUnavailable, op, err)
}
