package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eskan",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	requestDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eskan",
			Name:      "request_decisions_total",
			Help:      "Booking request lifecycle decisions by outcome.",
		},
		[]string{"decision"},
	)

	allocationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "eskan",
			Name:      "allocation_failures_total",
			Help:      "Approvals that failed because no room was available.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, requestDecisions, allocationFailures)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncDecision records a lifecycle outcome (approved, rejected, cancelled, created).
func IncDecision(decision string) {
	requestDecisions.WithLabelValues(decision).Inc()
}

// IncAllocationFailure records a NoRoomAvailable outcome.
func IncAllocationFailure() {
	allocationFailures.Inc()
}
