package harvest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/namehound/namehound/internal/policy/pacing"
)

// Default knobs applied by Config.withDefaults.
const (
	defaultSeedAlphabet  = "abcdefghijklmnopqrstuvwxyz"
	defaultQueueCapacity = 4096
)

// Config holds the settings for one discovery run. It is immutable for
// the life of the run.
type Config struct {
	// Versions lists the API universes to explore independently.
	Versions []string
	// SeedAlphabet supplies the depth-0 single-character queries.
	SeedAlphabet string
	// Concurrency bounds simultaneous in-flight fetches.
	Concurrency int
	// RequestPause is the minimum interval between requests on one slot
	// and the base unit for backoff waits.
	RequestPause time.Duration
	// RetryAttempts is the total number of tries per logical fetch.
	RetryAttempts int
	// BackoffMultiplier grows the wait between consecutive retries.
	BackoffMultiplier float64
	// MaxDepth bounds expansion hops; deeper tasks are discarded without
	// issuing a request.
	MaxDepth int
	// QueueCapacity sizes the work channel. It is raised to at least the
	// seed count so seeding can never block the whole pool.
	QueueCapacity int
}

func (c Config) withDefaults() Config {
	if c.SeedAlphabet == "" {
		c.SeedAlphabet = defaultSeedAlphabet
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = defaultQueueCapacity
	}
	if seeds := len(c.Versions) * len([]rune(c.SeedAlphabet)); c.QueueCapacity < seeds {
		c.QueueCapacity = seeds
	}
	return c
}

// Engine drives the breadth-first exploration: it seeds the queue, fans
// tasks out to a fixed worker pool, applies the retry/backoff policy
// around each fetch, and expands fresh discoveries into new tasks.
type Engine struct {
	cfg     Config
	fetcher Fetcher
	store   *Store
	queue   *Queue
	policy  BackoffPolicy
	obs     Observer
	logger  *zap.Logger
}

// NewEngine constructs an Engine. A nil observer or logger falls back to
// a no-op implementation.
func NewEngine(cfg Config, fetcher Fetcher, store *Store, obs Observer, logger *zap.Logger) *Engine {
	cfg = cfg.withDefaults()
	if obs == nil {
		obs = NopObserver()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	InitMetrics()
	return &Engine{
		cfg:     cfg,
		fetcher: fetcher,
		store:   store,
		queue:   NewQueue(cfg.QueueCapacity),
		policy:  NewBackoffPolicy(cfg.RequestPause, cfg.BackoffMultiplier, cfg.RetryAttempts),
		obs:     obs,
		logger:  logger,
	}
}

// Run executes the discovery to exhaustion: it returns once the queue is
// empty and no in-flight task can still produce new work, or once the
// context ends. Single-task failures never abort the run.
func (e *Engine) Run(ctx context.Context) error {
	if len(e.cfg.Versions) == 0 {
		return fmt.Errorf("no API versions configured")
	}

	if err := e.seed(ctx); err != nil {
		return fmt.Errorf("seed queue: %w", err)
	}

	e.logger.Info("harvest started",
		zap.Strings("versions", e.cfg.Versions),
		zap.Int("seeds", len(e.cfg.Versions)*len([]rune(e.cfg.SeedAlphabet))),
		zap.Int("concurrency", e.cfg.Concurrency),
		zap.Int("max_depth", e.cfg.MaxDepth),
	)

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.runWorker(ctx)
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return fmt.Errorf("harvest interrupted: %w", ctx.Err())
	}
	return nil
}

// Snapshot exposes the finished ledger after Run returns.
func (e *Engine) Snapshot() Snapshot {
	return e.store.Snapshot()
}

// seed enqueues one depth-0 task per (version, seed character) pair.
func (e *Engine) seed(ctx context.Context) error {
	for _, version := range e.cfg.Versions {
		for _, ch := range e.cfg.SeedAlphabet {
			task := Task{Version: version, Query: string(ch), Depth: 0}
			if err := e.queue.Enqueue(ctx, task); err != nil {
				return err
			}
		}
	}
	return nil
}

// runWorker consumes tasks until the queue drains or the context ends.
// Each worker owns one pacing slot, capping its request rate at
// 1/RequestPause.
func (e *Engine) runWorker(ctx context.Context) {
	pacer := pacing.NewSlotPacer(e.cfg.RequestPause)
	for {
		task, err := e.queue.Dequeue(ctx)
		if err != nil {
			return
		}
		SetQueuePending(e.queue.Pending())
		IncActiveWorkers()
		e.process(ctx, pacer, task)
		DecActiveWorkers()
		e.queue.Finish()
	}
}

// process runs one task end to end: pacing, fetch with retries, then
// expansion of fresh names into depth+1 tasks.
func (e *Engine) process(ctx context.Context, pacer *pacing.SlotPacer, task Task) {
	if task.Depth > e.cfg.MaxDepth {
		return
	}
	if err := pacer.Wait(ctx); err != nil {
		return
	}

	names, err := e.fetchWithRetry(ctx, task)
	if err != nil {
		e.obs.TaskAbandoned(task, err)
		return
	}
	e.expand(ctx, task, names)
}

// fetchWithRetry attempts the fetch up to RetryAttempts times, waiting
// RequestPause * BackoffMultiplier^attempt between tries on retryable
// failures. Non-retryable failures abort immediately.
func (e *Engine) fetchWithRetry(ctx context.Context, task Task) ([]string, error) {
	var lastErr error
	for attempt := 0; attempt < e.policy.MaxAttempts; attempt++ {
		e.store.RecordRequests(task.Version, 1)
		names, err := e.fetcher.Fetch(ctx, task.Version, task.Query)
		if err == nil {
			ObserveRequest(task.Version, OutcomeSuccess)
			return names, nil
		}
		lastErr = err
		ObserveRequest(task.Version, outcomeFor(err))

		if !e.policy.ShouldRetry(err, attempt) {
			if !Retryable(err) {
				return nil, err
			}
			break
		}

		wait := e.policy.Delay(attempt)
		e.obs.RetryScheduled(task, attempt+1, wait, err)
		ObserveBackoff(task.Version, wait)
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("retries exhausted after %d attempts: %w", e.policy.MaxAttempts, lastErr)
}

// expand marks fresh names as seen and enqueues them as depth+1 tasks.
// Marking happens before enqueueing, so a name is queued at most once per
// version across the whole run.
func (e *Engine) expand(ctx context.Context, task Task, names []string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		if !e.store.TryMarkSeen(task.Version, name) {
			continue
		}
		ObserveDiscovery(task.Version)
		e.obs.Discovered(task.Version, name, task.Depth)

		child := Task{Version: task.Version, Query: name, Depth: task.Depth + 1}
		if err := e.queue.Enqueue(ctx, child); err != nil {
			e.logger.Warn("expansion enqueue failed",
				zap.String("version", task.Version),
				zap.String("query", name),
				zap.Error(err),
			)
			continue
		}
	}
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case isRateLimited(err):
		return OutcomeRateLimited
	case Retryable(err):
		return OutcomeTransient
	default:
		return OutcomeHTTPError
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff wait canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
