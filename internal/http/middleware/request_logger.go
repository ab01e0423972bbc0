package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

// HTTPObserver records request latency. metrics.LeadMetrics satisfies it.
type HTTPObserver interface {
	ObserveHTTP(method, route, code string, seconds float64)
}

// RequestLogger emits structured logs for every HTTP request and, when
// observer is set, records its latency under the matched chi route.
func RequestLogger(logger *logging.Logger, observer HTTPObserver) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			elapsed := time.Since(start)
			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", status,
				"request_id", reqID,
				"remote_ip", r.RemoteAddr,
				"duration_ms", elapsed.Milliseconds(),
			)
			if observer != nil {
				observer.ObserveHTTP(r.Method, route, strconv.Itoa(status), elapsed.Seconds())
			}
		})
	}
}
