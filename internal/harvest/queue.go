package harvest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrQueueDrained signals that every enqueued task has been finished and
// no further work can arrive. Workers treat it as a clean exit.
var ErrQueueDrained = errors.New("queue drained")

// Queue hands tasks to workers through a bounded channel backed by an
// unbounded overflow list. Workers are both the producers and the only
// consumers of the channel, so Enqueue must never block: a task that
// does not fit the channel lands in the overflow and is moved over on a
// later Dequeue. Outstanding work is tracked with a counter, so the run
// terminates only when every enqueued task has been fully processed.
// Memory stays proportional to live tasks; the dedup store bounds those
// at one per distinct (version, name) pair.
type Queue struct {
	tasks     chan Task
	pending   atomic.Int64
	closeOnce sync.Once

	mu       sync.Mutex
	overflow []Task
}

// NewQueue constructs a Queue with the given channel capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{
		tasks: make(chan Task, capacity),
	}
}

// Enqueue registers the task as outstanding and makes it available to
// workers. It never blocks; when the handoff channel is full the task is
// parked in the overflow list.
func (q *Queue) Enqueue(ctx context.Context, task Task) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("enqueue canceled: %w", err)
	}
	q.pending.Add(1)
	select {
	case q.tasks <- task:
	default:
		q.mu.Lock()
		q.overflow = append(q.overflow, task)
		q.mu.Unlock()
	}
	return nil
}

// Dequeue pops the next task. It returns ErrQueueDrained once the queue
// has closed, or the context error if the caller is canceled first.
func (q *Queue) Dequeue(ctx context.Context) (Task, error) {
	q.refill()
	select {
	case <-ctx.Done():
		return Task{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case task, ok := <-q.tasks:
		if !ok {
			return Task{}, ErrQueueDrained
		}
		return task, nil
	}
}

// refill moves parked tasks into the handoff channel in arrival order
// until either runs out of room. Every consumer refills before blocking,
// and the channel can only have been full when a task was parked, so
// parked work is always picked up by a later Dequeue.
func (q *Queue) refill() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.overflow) > 0 {
		select {
		case q.tasks <- q.overflow[0]:
			q.overflow = q.overflow[1:]
		default:
			return
		}
	}
}

// Finish marks one outstanding task as fully processed, expansion
// included. The queue closes when the last outstanding task finishes;
// the overflow is necessarily empty at that point because every parked
// task still counts as outstanding. Enqueue children before calling
// Finish, or the run may end early.
func (q *Queue) Finish() {
	if q.pending.Add(-1) == 0 {
		q.closeOnce.Do(func() {
			close(q.tasks)
		})
	}
}

// Pending returns the number of enqueued-but-unfinished tasks.
func (q *Queue) Pending() int64 {
	return q.pending.Load()
}

// Len returns how many tasks are currently buffered, parked included.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks) + len(q.overflow)
}
