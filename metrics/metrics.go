// Package metrics provides Prometheus metrics for HTTP server
// monitoring and pipeline outcomes:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - analyze_status_total: Counter of pipeline terminal statuses
//   - ranker_requests_total: Counter of ranking strategy selections
//
// All metrics are registered with the Prometheus default registry
// during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (client IPs since last cleanup)",
		},
	)

	AnalyzeStatusTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyze_status_total",
			Help: "Analyze pipeline runs by terminal status",
		},
		[]string{"status"},
	)

	RankerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranker_requests_total",
			Help: "Ranking strategy selections per analyze request",
		},
		[]string{"strategy"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(AnalyzeStatusTotal)
	prometheus.MustRegister(RankerRequestsTotal)
}
