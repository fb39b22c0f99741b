// Package diagnostics serves the bridge's operator endpoints: a heartbeat,
// Prometheus metrics and the list of requests still waiting on the host.
package diagnostics

import (
	"net/http"

	chimd "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-bridge/pkg/codec"
	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/logger"
	hmetrics "github.com/joeydtaylor/steeze-bridge/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-bridge/pkg/transport/httpx"
)

// Pending is the registry view the endpoints need.
type Pending interface {
	Len() int
	IDs() []string
	Cancel(id string) bool
}

type Deps struct {
	Auth        *auth.Middleware
	LogMW       *logger.Middleware
	Metrics     http.Handler
	Pending     Pending
	Router      httpx.Router
	Log         *zap.Logger
	RequireAuth bool
}

type pendingView struct {
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

func BuildRouter(d Deps) http.Handler {
	r := d.Router
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r.Use(chimd.RequestID, chimd.Recoverer, chimd.Heartbeat("/ping"))

	if d.Auth != nil {
		r.Use(d.Auth.Middleware())
		if d.LogMW != nil {
			r.Use(d.LogMW.Middleware(d.Auth))
		}
	} else if d.LogMW != nil {
		r.Use(d.LogMW.Middleware(nil))
	}
	r.Use(hmetrics.Collect())

	guarded := r
	if d.RequireAuth && d.Auth != nil {
		guarded = r.Guarded(d.Auth.RequireAuth)
	}

	if d.Metrics != nil {
		guarded.Get("/metrics", d.Metrics)
	}
	guarded.Get("/pending", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, d.Log, pendingView{Count: d.Pending.Len(), IDs: d.Pending.IDs()})
	}))
	guarded.Delete("/pending/{id}", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := httpx.URLParam(req, "id")
		if !d.Pending.Cancel(id) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		d.Log.Info("pending request cancelled by operator", zap.String("id", id))
		w.WriteHeader(http.StatusNoContent)
	}))

	return r.Mux()
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, v any) {
	b, err := codec.JSONStrict.Marshal(v)
	if err != nil {
		log.Error("diagnostics encode failed", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", codec.JSONStrict.ContentType())
	_, _ = w.Write(b)
}
