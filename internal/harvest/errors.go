package harvest

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrRateLimited marks a 429 response. Retryable with exponential backoff.
var ErrRateLimited = errors.New("rate limited")

// StatusError is a non-200, non-429 response. It aborts the single task
// without retries; the run continues.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

func isRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// Retryable reports whether a fetch failure should be attempted again.
// Rate limiting and connection/timeout failures are retryable; HTTP errors
// and run cancellation are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
