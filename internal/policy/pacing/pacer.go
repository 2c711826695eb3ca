// Package pacing caps the request rate of individual worker slots.
package pacing

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// SlotPacer enforces a minimum interval between consecutive requests made
// by one worker slot, so a pool of N slots never exceeds N/interval
// requests per second overall.
type SlotPacer struct {
	limiter *rate.Limiter
}

// NewSlotPacer builds a pacer for the given inter-request interval.
// A zero or negative interval disables pacing.
func NewSlotPacer(interval time.Duration) *SlotPacer {
	if interval <= 0 {
		return &SlotPacer{}
	}
	return &SlotPacer{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Wait blocks until the slot may issue its next request, respecting the
// context.
func (p *SlotPacer) Wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pace wait: %w", err)
	}
	return nil
}
