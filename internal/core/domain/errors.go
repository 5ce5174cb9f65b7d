package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrTemporary    = errors.New("temporary failure")

	// Retrieval-side kinds. All three are absorbed at the tier boundary and
	// converted into a zero-result outcome for that tier.
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrBackendTimeout     = errors.New("backend timeout")
	ErrMalformedFilter    = errors.New("malformed filter")

	// ErrGenerationFailed occurs after retrieval succeeded and always
	// propagates to the caller.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrCacheCorrupted marks an unreadable cached entry; non-fatal, treated
	// as a cache miss.
	ErrCacheCorrupted = errors.New("cache entry corrupted")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// IsRetrievalKind reports whether err belongs to the taxonomy a tier absorbs.
func IsRetrievalKind(err error) bool {
	return IsKind(err, ErrBackendUnavailable) ||
		IsKind(err, ErrBackendTimeout) ||
		IsKind(err, ErrMalformedFilter)
}
