package harvest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// timeoutError satisfies net.Error the way client timeouts do.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestNewBackoffPolicyClamps(t *testing.T) {
	t.Parallel()

	p := NewBackoffPolicy(-1*time.Second, 0.5, 0)
	if p.Base != 0 {
		t.Fatalf("Base = %v, want 0", p.Base)
	}
	if p.Multiplier != 1 {
		t.Fatalf("Multiplier = %v, want 1", p.Multiplier)
	}
	if p.MaxAttempts != 1 {
		t.Fatalf("MaxAttempts = %d, want 1", p.MaxAttempts)
	}
}

func TestBackoffPolicyDelayGrowth(t *testing.T) {
	t.Parallel()

	p := NewBackoffPolicy(2*time.Second, 2, 4)

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 2 * time.Second},
		{attempt: 1, want: 4 * time.Second},
		{attempt: 2, want: 8 * time.Second},
	}
	for _, tc := range cases {
		if got := p.Delay(tc.attempt); got != tc.want {
			t.Fatalf("Delay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestBackoffPolicyShouldRetry(t *testing.T) {
	t.Parallel()

	p := NewBackoffPolicy(time.Second, 2, 3)
	rateLimited := fmt.Errorf("query %q: %w", "a", ErrRateLimited)
	httpErr := fmt.Errorf("query %q: %w", "a", &StatusError{Code: 500})

	cases := []struct {
		name    string
		err     error
		attempt int
		want    bool
	}{
		{name: "retryable below limit", err: rateLimited, attempt: 0, want: true},
		{name: "retryable at penultimate attempt", err: rateLimited, attempt: 1, want: true},
		{name: "retryable at final attempt", err: rateLimited, attempt: 2, want: false},
		{name: "non-retryable", err: httpErr, attempt: 0, want: false},
		{name: "no error", err: nil, attempt: 0, want: false},
	}
	for _, tc := range cases {
		if got := p.ShouldRetry(tc.err, tc.attempt); got != tc.want {
			t.Fatalf("%s: ShouldRetry() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "rate limited", err: fmt.Errorf("wrap: %w", ErrRateLimited), want: true},
		{name: "http status", err: &StatusError{Code: 404}, want: false},
		{name: "wrapped http status", err: fmt.Errorf("wrap: %w", &StatusError{Code: 500}), want: false},
		{name: "canceled", err: fmt.Errorf("wrap: %w", context.Canceled), want: false},
		{name: "network timeout", err: fmt.Errorf("wrap: %w", timeoutError{}), want: true},
		{name: "plain error", err: errors.New("boom"), want: false},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Fatalf("%s: Retryable() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestStatusErrorMessage(t *testing.T) {
	t.Parallel()

	err := &StatusError{Code: 503}
	if got := err.Error(); got != "unexpected status 503" {
		t.Fatalf("Error() = %q", got)
	}
}
