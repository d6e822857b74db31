package ocr

import (
	"fmt"
	"strconv"
	"time"

	"github.com/marlinspike/mistral-doc-ai/internal/domain"
)

// RateLimitError indicates the OCR provider returned HTTP 429. RetryAfter
// carries the provider's requested wait, used as a floor on the backoff
// delay.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return domain.ErrRateLimited
}

// NewRateLimitError wraps err as a RateLimitError carrying the parsed
// Retry-After wait in seconds (0 when the header was absent or unusable).
func NewRateLimitError(err error, retryAfterSecs int) *RateLimitError {
	return &RateLimitError{
		Err:        fmt.Errorf("%v: %w", err, domain.ErrRateLimited),
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer; HTTP-date forms
// are not honored.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil || secs < 0 {
		return 0
	}
	return secs
}
