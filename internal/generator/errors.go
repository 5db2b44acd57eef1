package generator

import (
	"context"
	"errors"
	"strings"
)

// Sentinel errors for generation.
var (
	// ErrRateLimited indicates the upstream service rejected the call with
	// a rate-limit response. Eligible for retry with key rotation.
	ErrRateLimited = errors.New("generator: rate limited")

	// ErrUnavailable indicates the upstream service is temporarily down or
	// the call timed out. Eligible for retry.
	ErrUnavailable = errors.New("generator: service unavailable")

	// ErrInvalidOutput indicates the service returned output that does not
	// conform to the requested schema. Permanent; never retried.
	ErrInvalidOutput = errors.New("generator: output does not conform to schema")

	// ErrExhausted indicates all retry attempts were consumed.
	ErrExhausted = errors.New("generator: attempts exhausted")
)

// Kind classifies an error's transience.
type Kind int

// Transience classifications.
const (
	// KindNone marks a permanent error; the call must not be retried.
	KindNone Kind = iota

	// KindRateLimit marks a rate-limit rejection; retry after backoff with
	// a rotated key.
	KindRateLimit

	// KindUnavailable marks an upstream outage or timeout; retry after backoff.
	KindUnavailable
)

// String returns a human-readable label for the kind.
func (k Kind) String() string {
	switch k {
	case KindRateLimit:
		return "rate_limit"
	case KindUnavailable:
		return "unavailable"
	default:
		return "permanent"
	}
}

// rateLimitMarkers are message fragments that identify a rate-limit response
// from backends that do not map status codes to ErrRateLimited themselves.
var rateLimitMarkers = []string{
	"rate limit",
	"rate_limit",
	"429",
	"too many requests",
	"quota exceeded",
}

// Transience is the single source of truth for what counts as retryable.
// Caller-side cancellation is never retryable; a deadline expiry surfaces as
// KindUnavailable because per-call budgets treat a slow upstream the same as
// a down one.
func Transience(err error) Kind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, context.Canceled) {
		return KindNone
	}
	if errors.Is(err, ErrRateLimited) {
		return KindRateLimit
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return KindUnavailable
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return KindRateLimit
		}
	}
	return KindNone
}

// IsRetryable reports whether the error is transient under Transience.
func IsRetryable(err error) bool {
	return Transience(err) != KindNone
}
