package opensearch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
	"github.com/kirillkom/benefits-navigator/internal/infrastructure/resilience"
)

type statusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *statusError) Error() string {
	if e == nil {
		return "opensearch status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("opensearch status: %s", e.Status)
	}
	return fmt.Sprintf("opensearch status: %s: %s", e.Status, strings.TrimSpace(e.Body))
}

func classifyIndexError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}

	var statusErr *statusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		// 4xx means the request itself is wrong; retrying cannot help.
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

// mapIndexError folds transport and status errors into the retrieval error
// kinds the tier orchestrator dispatches on.
func mapIndexError(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsRetrievalKind(err) {
		return err
	}

	var statusErr *statusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusBadRequest:
			return domain.WrapError(domain.ErrMalformedFilter, op, err)
		case statusErr.StatusCode >= 500:
			return domain.WrapError(domain.ErrBackendUnavailable, op, err)
		}
		return domain.WrapError(domain.ErrTemporary, op, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.WrapError(domain.ErrBackendTimeout, op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrBackendTimeout, op, err)
	}
	if resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrBackendUnavailable, op, err)
	}
	return domain.WrapError(domain.ErrBackendUnavailable, op, err)
}
