package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "prospectbingo", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "prospectbingo", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "prospectbingo", Name: "http_requests_total", Help: "Total number of HTTP requests."},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "prospectbingo", Name: "http_request_duration_seconds", Help: "Duration of HTTP requests in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)

	// ResourceOperations counts store operations by resource kind, operation and result
	// ("ok", "not_found", "invalid", "error").
	ResourceOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "prospectbingo", Name: "resource_operations_total", Help: "Resource store operations by kind, op and result."},
		[]string{"kind", "op", "result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(HTTPRequestsTotal)
	reg.MustRegister(HTTPRequestDuration)
	reg.MustRegister(ResourceOperations)
}
