package hitbtc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestTotalMetrics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hitbtc_api_requests_total",
			Help: "Total number of HitBTC API requests by segment, method and HTTP status",
		}, []string{"segment", "method", "status"},
	)

	requestLatencyMetrics = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hitbtc_api_request_duration_milliseconds",
			Help:    "HitBTC API request duration from send to response body read, throttle excluded",
			Buckets: prometheus.ExponentialBuckets(25, 2, 10), // 25ms to ~12.8s
		}, []string{"segment", "method"},
	)
)

func init() {
	prometheus.MustRegister(
		requestTotalMetrics,
		requestLatencyMetrics,
	)
}

func recordRequestMetrics(segment Segment, method, status string, duration time.Duration) {
	requestTotalMetrics.With(prometheus.Labels{
		"segment": string(segment),
		"method":  method,
		"status":  status,
	}).Inc()

	requestLatencyMetrics.With(prometheus.Labels{
		"segment": string(segment),
		"method":  method,
	}).Observe(float64(duration.Milliseconds()))
}
