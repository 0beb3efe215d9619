// Package core assembles the HTTP surface: reserved routes plus the
// catch-all that dispatches every other path to a function.
package core

import (
	"net/http"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-fn/pkg/config"
	hmetrics "github.com/joeydtaylor/steeze-fn/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-fn/pkg/registry"
)

const (
	heartbeatPath = "/ping"
	unmatchedURI  = "unmatched"
)

func BuildRouter(cfg config.Config, d BuildDeps) http.Handler {
	r := d.Router
	r.Use(chimd.RequestID, chimd.Recoverer, chimd.Heartbeat(heartbeatPath))

	if d.Auth != nil {
		d.Auth.Exempt(cfg.MetricsPath)
		r.Use(d.Auth.Middleware())
	}
	if d.LogMW != nil {
		r.Use(d.LogMW.Middleware(d.Auth))
	}
	// metrics collector that references auth state without copying it
	r.Use(hmetrics.Collect(d.Auth))
	hmetrics.SetPathNormalizer(uriLabel(d.Registry))

	if d.Metrics != nil {
		r.Handle(http.MethodGet, cfg.MetricsPath, d.Metrics)
	}

	var h http.HandlerFunc = NewDispatcher(d.Registry, d.Store, d.Auth, d.Log, cfg.MaxBodyBytes).ServeHTTP
	if t := cfg.FunctionTimeout.Duration; t > 0 {
		h = withTimeout(h, t)
	}
	r.HandleAll("/", h)
	r.HandleAll("/*", h)
	return r.Mux()
}

// uriLabel keeps the uri label bounded: only paths that resolve to a loaded
// function are reported as themselves.
func uriLabel(reg *registry.Registry) func(*http.Request) string {
	return func(r *http.Request) string {
		key := RouteKey(r.URL.Path)
		if _, ok := reg.Lookup(key); ok {
			return "/" + key
		}
		return unmatchedURI
	}
}
