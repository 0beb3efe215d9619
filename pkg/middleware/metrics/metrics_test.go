package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectCountsRequests(t *testing.T) {
	SetPathNormalizer(func(*http.Request) string { return "/normalized" })
	defer SetPathNormalizer(func(r *http.Request) string { return r.URL.Path })

	before := testutil.ToFloat64(totalHttpRequestsToUri.WithLabelValues("418", "/normalized", "GET"))
	h := Collect(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/anything", nil))

	after := testutil.ToFloat64(totalHttpRequestsToUri.WithLabelValues("418", "/normalized", "GET"))
	assert.Equal(t, before+1, after)
}

func TestCollectSkipsScrapePath(t *testing.T) {
	AddMetricsSkipPaths("/internal/metrics")
	before := testutil.ToFloat64(totalHttpRequests.WithLabelValues("200", "GET"))

	h := Collect(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/internal/metrics", nil))

	assert.Equal(t, before, testutil.ToFloat64(totalHttpRequests.WithLabelValues("200", "GET")))
}

func TestFunctionObservers(t *testing.T) {
	refreshes := testutil.ToFloat64(functionRefreshes)
	ObserveRefresh(20*time.Millisecond, 4, 1)
	assert.Equal(t, refreshes+1, testutil.ToFloat64(functionRefreshes))
	assert.Equal(t, float64(4), testutil.ToFloat64(functionsLoaded))

	nf := testutil.ToFloat64(functionLazyLoads.WithLabelValues(ResultNotFound))
	ObserveLazyLoad(ResultNotFound)
	assert.Equal(t, nf+1, testutil.ToFloat64(functionLazyLoads.WithLabelValues(ResultNotFound)))

	errs := testutil.ToFloat64(functionInvocations.WithLabelValues(ResultError))
	ObserveInvocation(ResultError)
	assert.Equal(t, errs+1, testutil.ToFloat64(functionInvocations.WithLabelValues(ResultError)))
}
