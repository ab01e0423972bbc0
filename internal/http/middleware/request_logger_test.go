package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

type recordingHTTPObserver struct {
	method, route, code string
}

func (r *recordingHTTPObserver) ObserveHTTP(method, route, code string, _ float64) {
	r.method, r.route, r.code = method, route, code
}

func TestRequestLoggerRecordsRouteAndStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithOptions(logging.Options{Level: "info", Writer: &buf})
	obs := &recordingHTTPObserver{}

	r := chi.NewRouter()
	r.Use(RequestLogger(logger, obs))
	r.Get("/admin/leads/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/leads/abc", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if obs.route != "/admin/leads/{id}" || obs.code != "404" || obs.method != http.MethodGet {
		t.Fatalf("unexpected observation %+v", obs)
	}
	if rec.Header().Get("X-Request-ID") != "req-1" {
		t.Fatalf("expected request id echoed, got %q", rec.Header().Get("X-Request-ID"))
	}
	if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
		t.Fatalf("expected request id in log, got %s", buf.String())
	}
}

func TestRequestLoggerGeneratesRequestID(t *testing.T) {
	handler := RequestLogger(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id")
	}
}
