package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	responseTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "response_time",
			Help:    "http response time.",
			Buckets: []float64{0.005, 0.05, 0.5, 1, 5, 10, 30, 60},
		},
	)

	totalHttpRequestsFromRole = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_http_requests_from_role", Help: "http requests from role"},
		[]string{"role"},
	)

	totalHttpRequestsToUri = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_http_requests_to_uri", Help: "http requests to uri"},
		[]string{"code", "uri", "method"},
	)

	totalHttpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_http_requests", Help: "http requests by code, and method"},
		[]string{"code", "method"},
	)

	functionsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "functions_loaded", Help: "functions in the current snapshot after the last refresh"},
	)

	functionRefreshes = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "function_refresh_total", Help: "completed function directory refreshes"},
	)

	functionRefreshFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "function_refresh_failures_total", Help: "files skipped by refreshes"},
	)

	functionRefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "function_refresh_duration_seconds",
			Help:    "function directory refresh duration.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)

	functionLazyLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "function_lazy_loads_total", Help: "registry misses by outcome"},
		[]string{"result"},
	)

	functionInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "function_invocations_total", Help: "function invocations by outcome"},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		responseTime,
		totalHttpRequestsFromRole,
		totalHttpRequestsToUri,
		totalHttpRequests,
		functionsLoaded,
		functionRefreshes,
		functionRefreshFailures,
		functionRefreshDuration,
		functionLazyLoads,
		functionInvocations,
	)
}
