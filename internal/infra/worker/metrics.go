package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"engagement-watch/internal/pkg/config"
)

// WorkerMetrics provides Prometheus metrics for the polling loop.
// It embeds the standard ConfigMetrics for configuration monitoring and adds
// metrics for cycles, catalog refreshes, fetch batches and detected deltas.
//
// Embedded metrics (from ConfigMetrics):
//   - watcher_config_load_timestamp
//   - watcher_config_validation_errors_total{field}
//   - watcher_config_fallbacks_total{field}
//   - watcher_config_fallback_active
//
// Loop metrics:
//   - watcher_poll_cycles_total{status}: success, failure (no fetch succeeded) or panic
//   - watcher_poll_cycle_duration_seconds
//   - watcher_poll_last_success_timestamp
//   - watcher_catalog_refresh_total{result}
//   - watcher_catalog_videos
//   - watcher_fetch_requests_total{kind,result}
//   - watcher_deltas_total{kind}
type WorkerMetrics struct {
	*config.ConfigMetrics

	CycleRunsTotal       *prometheus.CounterVec
	CycleDurationSeconds prometheus.Histogram
	LastSuccessTimestamp prometheus.Gauge
	CatalogRefreshTotal  *prometheus.CounterVec
	CatalogVideos        prometheus.Gauge
	FetchRequestsTotal   *prometheus.CounterVec
	DeltasTotal          *prometheus.CounterVec
}

// NewWorkerMetrics creates metrics registered with the default registerer.
func NewWorkerMetrics() *WorkerMetrics {
	return NewWorkerMetricsWith(prometheus.DefaultRegisterer)
}

// NewWorkerMetricsWith creates metrics registered with reg.
// Tests pass a fresh prometheus.NewRegistry() to avoid duplicate registration.
func NewWorkerMetricsWith(reg prometheus.Registerer) *WorkerMetrics {
	factory := promauto.With(reg)

	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetricsWith(reg, "watcher"),

		CycleRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "watcher_poll_cycles_total",
			Help: "Total number of polling cycles by status (success/failure/panic)",
		}, []string{"status"}),

		CycleDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "watcher_poll_cycle_duration_seconds",
			Help:    "Duration of a polling cycle in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}, // one cycle is a few API round trips
		}),

		LastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "watcher_poll_last_success_timestamp",
			Help: "Unix timestamp of the last completed polling cycle",
		}),

		CatalogRefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "watcher_catalog_refresh_total",
			Help: "Total number of catalog refreshes by result (success/failure)",
		}, []string{"result"}),

		CatalogVideos: factory.NewGauge(prometheus.GaugeOpts{
			Name: "watcher_catalog_videos",
			Help: "Number of video ids currently tracked",
		}),

		FetchRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "watcher_fetch_requests_total",
			Help: "Total number of statistics requests by kind (videos/channel) and result (success/failure)",
		}, []string{"kind", "result"}),

		DeltasTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "watcher_deltas_total",
			Help: "Sum of positive deltas detected by kind (likes/subscribers)",
		}, []string{"kind"}),
	}
}

// RecordCycle records one finished polling cycle.
func (m *WorkerMetrics) RecordCycle(status string, seconds float64) {
	m.CycleRunsTotal.WithLabelValues(status).Inc()
	m.CycleDurationSeconds.Observe(seconds)
	if status == "success" {
		m.LastSuccessTimestamp.SetToCurrentTime()
	}
}

// RecordCatalogRefresh records a refresh attempt and, on success, the new catalog size.
func (m *WorkerMetrics) RecordCatalogRefresh(result string, size int) {
	m.CatalogRefreshTotal.WithLabelValues(result).Inc()
	if result == "success" {
		m.CatalogVideos.Set(float64(size))
	}
}

// RecordFetch records one statistics request.
func (m *WorkerMetrics) RecordFetch(kind, result string) {
	m.FetchRequestsTotal.WithLabelValues(kind, result).Inc()
}

// RecordDelta adds a positive delta for kind.
func (m *WorkerMetrics) RecordDelta(kind string, delta int64) {
	if delta > 0 {
		m.DeltasTotal.WithLabelValues(kind).Add(float64(delta))
	}
}
