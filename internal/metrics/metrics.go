// Package metrics exposes Prometheus instrumentation for the audit
// pipeline. Init is idempotent so tests and multiple entry points can
// call it safely.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce sync.Once

	// RunsTotal counts pipeline runs by outcome (success, failure).
	RunsTotal *prometheus.CounterVec

	// PagesCrawled tracks the page count of the most recent crawl.
	PagesCrawled prometheus.Gauge

	// AnalyzerDuration observes per-analyzer wall time in seconds.
	AnalyzerDuration *prometheus.HistogramVec

	// TasksCreatedTotal counts tasks emitted by analyzers.
	TasksCreatedTotal *prometheus.CounterVec

	// TasksExecutedTotal counts tasks the execution engine completed.
	TasksExecutedTotal prometheus.Counter

	// TasksBlockedTotal counts tasks rejected by the risk ceiling.
	TasksBlockedTotal prometheus.Counter

	// ValidationFailuresTotal counts gate failures by check.
	ValidationFailuresTotal *prometheus.CounterVec

	// PatchesGeneratedTotal counts patch artifacts written.
	PatchesGeneratedTotal prometheus.Counter

	// AlertsPublishedTotal counts alerts sent by the monitoring analyzer.
	AlertsPublishedTotal prometheus.Counter
)

// Init registers all collectors with the default registry exactly once.
func Init() {
	initOnce.Do(func() {
		RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seopilot",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"})

		PagesCrawled = promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "seopilot",
			Name:      "pages_crawled",
			Help:      "Pages captured by the most recent crawl.",
		})

		AnalyzerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "seopilot",
			Name:      "analyzer_duration_seconds",
			Help:      "Per-analyzer wall time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"analyzer"})

		TasksCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seopilot",
			Name:      "tasks_created_total",
			Help:      "Tasks emitted by analyzers.",
		}, []string{"analyzer", "action"})

		TasksExecutedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "seopilot",
			Name:      "tasks_executed_total",
			Help:      "Tasks completed by the execution engine.",
		})

		TasksBlockedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "seopilot",
			Name:      "tasks_blocked_total",
			Help:      "Tasks rejected by the risk ceiling.",
		})

		ValidationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seopilot",
			Name:      "validation_failures_total",
			Help:      "Validation gate failures by check.",
		}, []string{"check"})

		PatchesGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "seopilot",
			Name:      "patches_generated_total",
			Help:      "Patch artifacts written.",
		})

		AlertsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "seopilot",
			Name:      "alerts_published_total",
			Help:      "Alerts published by the monitoring analyzer.",
		})
	})
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
