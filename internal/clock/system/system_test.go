package system

import (
	"testing"
	"time"
)

func TestNowIsUTC(t *testing.T) {
	t.Parallel()

	clk := New()
	now := clk.Now()
	if now.Location() != time.UTC {
		t.Fatalf("Now() location = %v, want UTC", now.Location())
	}
	if delta := time.Since(now); delta < -time.Second || delta > time.Second {
		t.Fatalf("Now() = %v, drifts %v from wall clock", now, delta)
	}
}

func TestNowNeverRewinds(t *testing.T) {
	t.Parallel()

	clk := New()
	a := clk.Now()
	b := clk.Now()
	if b.Before(a) {
		t.Fatalf("Now() went backwards: %v then %v", a, b)
	}
}
