package metrics

import (
	"net/http"

	"github.com/joeydtaylor/steeze-fn/pkg/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewPromHttpHandler returns the metrics scrape handler.
func NewPromHttpHandler() http.Handler { return promhttp.Handler() }

// ProvideMetrics is the Fx provider used by the server wiring. The scrape
// path itself is never counted.
func ProvideMetrics(cfg config.Config) http.Handler {
	AddMetricsSkipPaths(cfg.MetricsPath)
	return NewPromHttpHandler()
}
