package harvest

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestQueueEnqueueDequeue(t *testing.T) {
	t.Parallel()

	q := NewQueue(4)
	ctx := context.Background()

	want := Task{Version: "v1", Query: "a", Depth: 0}
	if err := q.Enqueue(ctx, want); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if got := q.Pending(); got != 1 {
		t.Fatalf("Pending() = %d, want 1", got)
	}
	if got := q.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}

	got, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue() error = %v", err)
	}
	if got != want {
		t.Fatalf("Dequeue() = %+v, want %+v", got, want)
	}
}

func TestQueueDrainsWhenLastTaskFinishes(t *testing.T) {
	t.Parallel()

	q := NewQueue(4)
	ctx := context.Background()

	if err := q.Enqueue(ctx, Task{Version: "v1", Query: "a"}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if _, err := q.Dequeue(ctx); err != nil {
		t.Fatalf("Dequeue() error = %v", err)
	}

	// The consumer enqueues a child before finishing its own task, so the
	// queue must stay open across the handoff.
	if err := q.Enqueue(ctx, Task{Version: "v1", Query: "apple", Depth: 1}); err != nil {
		t.Fatalf("Enqueue(child) error = %v", err)
	}
	q.Finish()

	if _, err := q.Dequeue(ctx); err != nil {
		t.Fatalf("Dequeue(child) error = %v", err)
	}
	q.Finish()

	if _, err := q.Dequeue(ctx); !errors.Is(err, ErrQueueDrained) {
		t.Fatalf("Dequeue() after drain error = %v, want ErrQueueDrained", err)
	}
	if got := q.Pending(); got != 0 {
		t.Fatalf("Pending() = %d, want 0", got)
	}
}

func TestQueueDequeueHonorsContext(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := q.Dequeue(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Dequeue() error = %v, want deadline exceeded", err)
	}
}

func TestQueueEnqueueNeverBlocksWhenFull(t *testing.T) {
	t.Parallel()

	q := NewQueue(2)
	ctx := context.Background()

	// Push well past the channel capacity; every call must return
	// immediately and every task must come back out.
	queries := []string{"a", "b", "c", "d", "e", "f"}
	for _, query := range queries {
		if err := q.Enqueue(ctx, Task{Version: "v1", Query: query}); err != nil {
			t.Fatalf("Enqueue(%q) error = %v", query, err)
		}
	}
	if got := q.Pending(); got != int64(len(queries)) {
		t.Fatalf("Pending() = %d, want %d", got, len(queries))
	}
	if got := q.Len(); got != len(queries) {
		t.Fatalf("Len() = %d, want %d", got, len(queries))
	}

	seen := make(map[string]bool)
	for range queries {
		task, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("Dequeue() error = %v", err)
		}
		seen[task.Query] = true
		q.Finish()
	}
	for _, query := range queries {
		if !seen[query] {
			t.Fatalf("task %q was never delivered", query)
		}
	}

	if _, err := q.Dequeue(ctx); !errors.Is(err, ErrQueueDrained) {
		t.Fatalf("Dequeue() after drain error = %v, want ErrQueueDrained", err)
	}
}

func TestQueueEnqueueRejectsCanceledContext(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Enqueue(ctx, Task{Version: "v1", Query: "a"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Enqueue() error = %v, want context.Canceled", err)
	}
	// The failed enqueue must not leave a phantom outstanding task.
	if got := q.Pending(); got != 0 {
		t.Fatalf("Pending() = %d, want 0", got)
	}
}
