package logger

import (
	"net/http"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/auth"
)

// Middleware writes one access-log line per diagnostics request.
type Middleware struct{}

func (m *Middleware) Middleware(ca *auth.Middleware) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := httpAccessLogger
			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)

			start := time.Now()
			defer func() {
				// nil-safe auth lookups
				isAuth := false
				username := ""
				if ca != nil {
					isAuth = ca.IsAuthenticated(r.Context())
					username = ca.GetUser(r.Context()).Username
				}

				l.Info("diagnostics request",
					zap.String("requestId", chimd.GetReqID(r.Context())),
					zap.Bool("isAuthenticated", isAuth),
					zap.String("username", username),
					zap.String("httpMethod", r.Method),
					zap.String("remoteAddr", r.RemoteAddr),
					zap.String("uri", r.URL.Path),
					zap.Duration("lat", time.Since(start)),
					zap.Int("responseSize", ww.BytesWritten()),
					zap.Int("status", ww.Status()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
