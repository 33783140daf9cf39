package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for trigger dispatch
var (
	// triggerDispatchTotal tracks dispatch outcomes per kind
	triggerDispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trigger_dispatch_total",
			Help: "Total number of trigger dispatch outcomes",
		},
		[]string{"kind", "status"}, // status: sent|suppressed|failed|skipped
	)

	// triggerFailuresTotal tracks failed triggers by error class
	triggerFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trigger_failures_total",
			Help: "Total number of failed triggers by error class",
		},
		[]string{"kind", "reason"}, // reason: client_error|server_error|rate_limited|timeout|transport|not_configured
	)

	// triggerDuration tracks trigger request duration
	triggerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trigger_duration_seconds",
			Help:    "Trigger request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // up to the default timeout
		},
		[]string{"kind"},
	)
)

// RecordOutcome increments the dispatch counter for kind and status.
func RecordOutcome(kind string, status Status) {
	triggerDispatchTotal.WithLabelValues(kind, string(status)).Inc()
}

// RecordFailure increments the failure counter for kind and reason.
func RecordFailure(kind, reason string) {
	triggerFailuresTotal.WithLabelValues(kind, reason).Inc()
}

// RecordDuration observes how long a trigger request took.
func RecordDuration(kind string, d time.Duration) {
	triggerDuration.WithLabelValues(kind).Observe(d.Seconds())
}
