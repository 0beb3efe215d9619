package metrics

import "time"

// Outcome labels for lazy loads and invocations.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// ObserveRefresh records one finished refresh.
func ObserveRefresh(d time.Duration, loaded, failed int) {
	functionRefreshes.Inc()
	functionRefreshDuration.Observe(d.Seconds())
	functionsLoaded.Set(float64(loaded))
	functionRefreshFailures.Add(float64(failed))
}

// ObserveLazyLoad records the outcome of a registry miss.
func ObserveLazyLoad(result string) { functionLazyLoads.WithLabelValues(result).Inc() }

// ObserveInvocation records the outcome of running a function.
func ObserveInvocation(result string) { functionInvocations.WithLabelValues(result).Inc() }
