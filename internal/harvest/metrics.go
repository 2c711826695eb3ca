package harvest

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcome labels recorded per attempted HTTP call.
const (
	OutcomeSuccess     = "success"
	OutcomeRateLimited = "rate_limited"
	OutcomeTransient   = "transient"
	OutcomeHTTPError   = "http_error"
)

var (
	harvestRequestsTotal       *prometheus.CounterVec
	harvestDiscoveriesTotal    *prometheus.CounterVec
	harvestRetryBackoffSeconds *prometheus.HistogramVec
	harvestActiveWorkers       prometheus.Gauge
	harvestQueuePending        prometheus.Gauge

	metricsOnce sync.Once
)

// InitMetrics initializes the Prometheus collectors for the harvest engine.
// It is safe to call multiple times.
func InitMetrics() {
	metricsOnce.Do(func() {
		harvestRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_requests_total",
				Help: "Total autocomplete requests attempted, labeled by version and outcome.",
			},
			[]string{"version", "outcome"},
		)

		harvestDiscoveriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_discoveries_total",
				Help: "Total unique names discovered, labeled by version.",
			},
			[]string{"version"},
		)

		harvestRetryBackoffSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvest_retry_backoff_seconds",
				Help:    "Histogram of backoff waits scheduled before retries.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"version"},
		)

		harvestActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "harvest_active_workers",
				Help: "Number of workers currently processing a task.",
			},
		)

		harvestQueuePending = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "harvest_queue_pending_tasks",
				Help: "Number of enqueued tasks not yet fully processed.",
			},
		)
	})
}

// ObserveRequest increments the request counter for a version/outcome pair.
func ObserveRequest(version, outcome string) {
	harvestRequestsTotal.WithLabelValues(version, outcome).Inc()
}

// ObserveDiscovery increments the discovery counter for a version.
func ObserveDiscovery(version string) {
	harvestDiscoveriesTotal.WithLabelValues(version).Inc()
}

// ObserveBackoff records a scheduled backoff wait.
func ObserveBackoff(version string, wait time.Duration) {
	harvestRetryBackoffSeconds.WithLabelValues(version).Observe(wait.Seconds())
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	harvestActiveWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	harvestActiveWorkers.Dec()
}

// SetQueuePending updates the pending tasks gauge.
func SetQueuePending(n int64) {
	harvestQueuePending.Set(float64(n))
}
