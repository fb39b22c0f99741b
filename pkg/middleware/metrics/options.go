package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Paths never counted.
var skipPaths = map[string]struct{}{"/metrics": {}}

func isSkipPath(r *http.Request) bool {
	_, ok := skipPaths[r.URL.Path]
	return ok
}

// normalizePath labels by the matched chi route pattern when there is one,
// so /pending/{id} stays a single series.
func normalizePath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
