package harvest

import (
	"time"

	"go.uber.org/zap"
)

// Observer receives engine side effects so the core stays testable
// without real I/O. Implementations must be safe for concurrent use.
type Observer interface {
	// Discovered fires once per newly seen (version, name) pair.
	Discovered(version, name string, depth int)
	// RetryScheduled fires before each backoff wait. Attempt is 1-based.
	RetryScheduled(task Task, attempt int, wait time.Duration, cause error)
	// TaskAbandoned fires when a task fails permanently. The run continues.
	TaskAbandoned(task Task, err error)
}

type nopObserver struct{}

func (nopObserver) Discovered(string, string, int)                 {}
func (nopObserver) RetryScheduled(Task, int, time.Duration, error) {}
func (nopObserver) TaskAbandoned(Task, error)                      {}

// NopObserver returns an Observer that drops everything.
func NopObserver() Observer {
	return nopObserver{}
}

// LogObserver emits structured logs for engine events.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver wires a Zap logger to the Observer interface.
func NewLogObserver(logger *zap.Logger) *LogObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogObserver{logger: logger}
}

// Discovered logs a newly found name.
func (o *LogObserver) Discovered(version, name string, depth int) {
	o.logger.Info("name discovered",
		zap.String("version", version),
		zap.String("name", name),
		zap.Int("depth", depth),
	)
}

// RetryScheduled logs the upcoming backoff wait.
func (o *LogObserver) RetryScheduled(task Task, attempt int, wait time.Duration, cause error) {
	o.logger.Warn("retry scheduled",
		zap.String("version", task.Version),
		zap.String("query", task.Query),
		zap.Int("attempt", attempt),
		zap.Duration("wait", wait),
		zap.Error(cause),
	)
}

// TaskAbandoned logs a permanent single-task failure.
func (o *LogObserver) TaskAbandoned(task Task, err error) {
	o.logger.Error("task abandoned",
		zap.String("version", task.Version),
		zap.String("query", task.Query),
		zap.Int("depth", task.Depth),
		zap.Error(err),
	)
}
