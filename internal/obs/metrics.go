// Package obs holds the Prometheus collectors shared by the API and the worker.
package obs

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation results.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Side-effect kinds counted when a write after a committed mutation fails.
const (
	SideEffectHours = "hours"
	SideEffectAudit = "audit"
	SideEffectRelay = "relay"
	SideEffectQueue = "queue"
)

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_operations_total",
			Help: "Attendance operations by name and result.",
		},
		[]string{"op", "result"},
	)

	hoursRecordedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "volunteer_hours_recorded_total",
		Help: "Volunteer-hours ledger entries appended.",
	})

	sideEffectFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "side_effect_failures_total",
			Help: "Failed side effects after a committed attendance mutation.",
		},
		[]string{"kind"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	registerOnce sync.Once
)

// Init registers the collectors in the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(operationsTotal, hoursRecordedTotal, sideEffectFailuresTotal, httpRequestsTotal, httpRequestDuration)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Operation counts one attendance operation outcome.
func Operation(op, result string) {
	operationsTotal.WithLabelValues(op, result).Inc()
}

// HoursRecorded counts one appended ledger entry.
func HoursRecorded() {
	hoursRecordedTotal.Inc()
}

// SideEffectFailed counts a failed post-commit side effect.
func SideEffectFailed(kind string) {
	sideEffectFailuresTotal.WithLabelValues(kind).Inc()
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, path, status string, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}

// HTTPRequests exposes the request counter for assertions.
func HTTPRequests() *prometheus.CounterVec {
	return httpRequestsTotal
}
