package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	reconciliationWrites *prometheus.CounterVec
	standingEvaluations  *prometheus.CounterVec
	standingCacheHits    prometheus.Counter
	gradeEventsPublished *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classtrack_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "classtrack_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classtrack_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		reconciliationWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classtrack_reconciliation_writes_total",
			Help: "Auto-zero and auto-submit records created or removed by reconciliation.",
		}, []string{"kind", "op"})

		standingEvaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classtrack_standing_evaluations_total",
			Help: "Standing computations, split by mutating vs read-only mode.",
		}, []string{"mode"})

		standingCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "classtrack_standing_cache_hits_total",
			Help: "Standing reads served from the cache.",
		})

		gradeEventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classtrack_grade_events_published_total",
			Help: "Grade events published to the message brokers.",
		}, []string{"type"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			reconciliationWrites,
			standingEvaluations,
			standingCacheHits,
			gradeEventsPublished,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// ReconciliationWrites exposes the counter for reconciliation writes.
func ReconciliationWrites() *prometheus.CounterVec {
	RegisterMetrics()
	return reconciliationWrites
}

// StandingEvaluations exposes the counter for standing computations.
func StandingEvaluations() *prometheus.CounterVec {
	RegisterMetrics()
	return standingEvaluations
}

// StandingCacheHits exposes the counter for cached standing reads.
func StandingCacheHits() prometheus.Counter {
	RegisterMetrics()
	return standingCacheHits
}

// GradeEventsPublished exposes the counter for published grade events.
func GradeEventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return gradeEventsPublished
}
