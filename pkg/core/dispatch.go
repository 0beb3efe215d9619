package core

import (
	"errors"
	"io"
	"net/http"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-fn/pkg/function"
	"github.com/joeydtaylor/steeze-fn/pkg/middleware/auth"
	hmetrics "github.com/joeydtaylor/steeze-fn/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-fn/pkg/registry"
	"go.uber.org/zap"
)

// Dispatcher serves every request that is not a reserved route: it resolves
// the path to a function, running a lazy load on a registry miss, and sends
// exactly one response.
type Dispatcher struct {
	reg     *registry.Registry
	store   function.Store
	auth    *auth.Middleware
	log     *zap.Logger
	maxBody int64
}

func NewDispatcher(reg *registry.Registry, store function.Store, a *auth.Middleware, log *zap.Logger, maxBody int64) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{reg: reg, store: store, auth: a, log: log, maxBody: maxBody}
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := RouteKey(r.URL.Path)
	reqID := chimd.GetReqID(r.Context())

	fn, ok := d.reg.Lookup(key)
	if !ok {
		var err error
		fn, err = d.reg.GetOrLoad(key)
		switch {
		case errors.Is(err, registry.ErrNotFound):
			hmetrics.ObserveLazyLoad(hmetrics.ResultNotFound)
			writeText(w, http.StatusNotFound, notFoundBody)
			return
		case err != nil:
			hmetrics.ObserveLazyLoad(hmetrics.ResultError)
			d.log.Error("load function failed",
				zap.String("key", key),
				zap.Bool("compile", function.IsCompileError(err)),
				zap.String("requestId", reqID),
				zap.Error(err),
			)
			writeText(w, http.StatusInternalServerError, errorBody)
			return
		}
		hmetrics.ObserveLazyLoad(hmetrics.ResultOK)
	}

	body, err := d.readBody(w, r)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeText(w, http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge)+"\n")
			return
		}
		d.log.Warn("read request body failed", zap.String("key", key), zap.String("requestId", reqID), zap.Error(err))
		writeText(w, http.StatusInternalServerError, errorBody)
		return
	}

	resp, err := fn.Invoke(r.Context(), function.Env{
		Request:   r,
		Body:      body,
		RequestID: reqID,
		User:      d.principal(r),
		Store:     d.store,
	})
	if err != nil {
		hmetrics.ObserveInvocation(hmetrics.ResultError)
		d.log.Error("function failed",
			zap.String("key", key),
			zap.String("path", fn.Path),
			zap.String("requestId", reqID),
			zap.Error(err),
		)
		writeText(w, http.StatusInternalServerError, errorBody)
		return
	}
	hmetrics.ObserveInvocation(hmetrics.ResultOK)
	resp.Send(w)
}

func (d *Dispatcher) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	var src io.Reader = r.Body
	if d.maxBody > 0 {
		src = http.MaxBytesReader(w, r.Body, d.maxBody)
	}
	return io.ReadAll(src)
}

func (d *Dispatcher) principal(r *http.Request) *function.Principal {
	if d.auth == nil || !d.auth.IsAuthenticated(r.Context()) {
		return nil
	}
	u := d.auth.GetUser(r.Context())
	return &function.Principal{
		Username: u.Username,
		Role:     u.Role.Name,
		Provider: u.AuthenticationSource.Provider,
		Admin:    d.auth.IsAdmin(r.Context()),
	}
}
