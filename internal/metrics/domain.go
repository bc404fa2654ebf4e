package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Admission and backend Prometheus metrics.
var (
	AdmissionDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "admission_decisions_total",
			Help:      "Total number of rate limit admission decisions",
		},
		[]string{"decision"}, // "allowed" / "rejected"
	)

	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "backend_requests_total",
			Help:      "Total number of search backend requests",
		},
		[]string{"op", "outcome"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsearch",
			Name:      "backend_request_duration_seconds",
			Help:      "Search backend request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	UsageRecordErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "usage_record_errors_total",
			Help:      "Total failed writes to the usage store",
		},
	)
)

// Backend request outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeError       = "error"
	OutcomeUnavailable = "unavailable"
)

var registerOnce sync.Once

// RegisterDomainMetrics registers admission and backend metrics. Called once from main.
func RegisterDomainMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(AdmissionDecisionsTotal)
		prometheus.MustRegister(BackendRequestsTotal)
		prometheus.MustRegister(BackendRequestDuration)
		prometheus.MustRegister(UsageRecordErrorsTotal)
	})
}
