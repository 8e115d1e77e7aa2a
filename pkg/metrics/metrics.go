// Package metrics holds the Prometheus collectors for the web front end.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BackendRequestDuration times every call made to the marketplace backend.
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bidzilla",
			Name:      "backend_request_duration_seconds",
			Help:      "Marketplace backend request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"operation", "status"},
	)

	// PageRequests counts page requests served, by route pattern.
	PageRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bidzilla",
			Name:      "page_requests_total",
			Help:      "Total number of page requests served",
		},
		[]string{"method", "route", "status"},
	)

	// GuardRejections counts requests turned away by the route guard.
	GuardRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bidzilla",
			Name:      "guard_rejections_total",
			Help:      "Requests redirected by the route guard",
		},
		[]string{"reason"}, // unauthenticated, wrong_role, expired
	)
)

// RecordBackendRequest records one backend call. status is the HTTP status
// code, or 0 when the request never produced a response.
func RecordBackendRequest(operation string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	BackendRequestDuration.WithLabelValues(operation, label).Observe(duration.Seconds())
}

// RecordPageRequest counts a served page.
func RecordPageRequest(method, route string, status int) {
	PageRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// IncrementGuardRejection counts a guard redirect.
func IncrementGuardRejection(reason string) {
	GuardRejections.WithLabelValues(reason).Inc()
}
