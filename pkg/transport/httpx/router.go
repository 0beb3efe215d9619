// pkg/transport/httpx/router.go
package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router is the minimal HTTP router contract the server depends on.
// NewChi implements it.
type Router interface {
	Handle(method, path string, h http.Handler)
	HandleAll(pattern string, h http.Handler)
	Mux() http.Handler
	Use(mw ...func(http.Handler) http.Handler)
}

// chiRouter is the default Router backed by github.com/go-chi/chi/v5.
type chiRouter struct{ r *chi.Mux }

// NewChi returns a Chi-backed Router.
func NewChi() Router { return &chiRouter{r: chi.NewRouter()} }

func (c *chiRouter) Handle(method, path string, h http.Handler) { c.r.Method(method, path, h) }
func (c *chiRouter) HandleAll(pattern string, h http.Handler)   { c.r.Handle(pattern, h) }
func (c *chiRouter) Mux() http.Handler                          { return c.r }
func (c *chiRouter) Use(mw ...func(http.Handler) http.Handler)  { c.r.Use(mw...) }
