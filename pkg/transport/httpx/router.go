// pkg/transport/httpx/router.go
package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router is the small routing surface the diagnostics server builds on.
type Router interface {
	Use(mw ...func(http.Handler) http.Handler)
	Get(path string, h http.Handler)
	Delete(path string, h http.Handler)
	// Guarded returns a sub-router whose routes run behind mw.
	Guarded(mw ...func(http.Handler) http.Handler) Router
	Mux() http.Handler
}

type chiRouter struct {
	root *chi.Mux
	r    chi.Router
}

// NewChi returns a Chi-backed Router.
func NewChi() Router {
	m := chi.NewRouter()
	return &chiRouter{root: m, r: m}
}

func (c *chiRouter) Use(mw ...func(http.Handler) http.Handler) { c.r.Use(mw...) }
func (c *chiRouter) Get(path string, h http.Handler)           { c.r.Method(http.MethodGet, path, h) }
func (c *chiRouter) Delete(path string, h http.Handler)        { c.r.Method(http.MethodDelete, path, h) }
func (c *chiRouter) Mux() http.Handler                         { return c.root }

func (c *chiRouter) Guarded(mw ...func(http.Handler) http.Handler) Router {
	if len(mw) == 0 {
		return c
	}
	return &chiRouter{root: c.root, r: c.r.With(mw...)}
}

// URLParam reads a path parameter captured by the router.
func URLParam(r *http.Request, key string) string { return chi.URLParam(r, key) }
