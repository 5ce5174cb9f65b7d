package httpadapter

import (
	"net/http"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
)

// mapErrorToHTTPStatus keeps "found nothing" and "could not generate"
// distinguishable at the edge: retrieval exhaustion still answers 200 with a
// low-confidence body, while a generation failure is a 502.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrMalformedFilter):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrGenerationFailed):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrBackendTimeout):
		return http.StatusGatewayTimeout
	case domain.IsKind(err, domain.ErrBackendUnavailable),
		domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
