package harvest

import (
	"math"
	"time"
)

// BackoffPolicy decides how many attempts one logical fetch gets and how
// long to wait between them. The k-th retry waits Base * Multiplier^(k-1).
type BackoffPolicy struct {
	Base        time.Duration
	Multiplier  float64
	MaxAttempts int
}

// NewBackoffPolicy builds a policy, clamping nonsense values.
func NewBackoffPolicy(base time.Duration, multiplier float64, maxAttempts int) BackoffPolicy {
	if base < 0 {
		base = 0
	}
	if multiplier < 1 {
		multiplier = 1
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return BackoffPolicy{
		Base:        base,
		Multiplier:  multiplier,
		MaxAttempts: maxAttempts,
	}
}

// ShouldRetry reports whether another attempt is warranted after the given
// zero-based attempt failed with err.
func (p BackoffPolicy) ShouldRetry(err error, attempt int) bool {
	if attempt+1 >= p.MaxAttempts {
		return false
	}
	return Retryable(err)
}

// Delay returns the wait before the retry that follows the given
// zero-based attempt.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(p.Base) * math.Pow(p.Multiplier, float64(attempt))
	if delay > float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}
