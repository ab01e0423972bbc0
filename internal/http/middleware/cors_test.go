package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const siteOrigin = "https://callkaidsroofing.com.au"

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSAllowsSiteOriginOnLeadPost(t *testing.T) {
	called := false
	mw := CORS([]string{" " + siteOrigin + " ", ""})
	req := httptest.NewRequest(http.MethodPost, "/leads", strings.NewReader(`{}`))
	req.Header.Set("Origin", siteOrigin)
	rec := httptest.NewRecorder()

	mw(okHandler(&called)).ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to be called")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != siteOrigin {
		t.Fatalf("expected allow origin header, got %q", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Fatalf("expected Vary: Origin, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Fatalf("expected max age 600, got %q", got)
	}
}

func TestCORSDeniesUnknownOrigin(t *testing.T) {
	called := false
	mw := CORS([]string{siteOrigin})
	req := httptest.NewRequest(http.MethodPost, "/leads", strings.NewReader(`{}`))
	req.Header.Set("Origin", "https://roof-quotes.example")
	rec := httptest.NewRecorder()

	mw(okHandler(&called)).ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to still be called")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow origin header, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "" {
		t.Fatalf("expected no allow methods header, got %q", got)
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	called := false
	mw := CORS([]string{"*"})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()

	mw(okHandler(&called)).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allow origin header, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		method  string
		headers string
	}{
		{"lead form post", "/leads", http.MethodPost, "Content-Type, X-Request-ID"},
		{"admin status update", "/admin/leads/3f2a/status", http.MethodPatch, "Authorization, Content-Type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mw := CORS([]string{siteOrigin})
			req := httptest.NewRequest(http.MethodOptions, tt.path, nil)
			req.Header.Set("Origin", siteOrigin)
			req.Header.Set("Access-Control-Request-Method", tt.method)
			req.Header.Set("Access-Control-Request-Headers", tt.headers)
			rec := httptest.NewRecorder()

			mw(okHandler(&called)).ServeHTTP(rec, req)

			if called {
				t.Fatalf("expected handler to not be called on preflight")
			}
			if rec.Code != http.StatusNoContent {
				t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
			}
			methods := rec.Header().Get("Access-Control-Allow-Methods")
			if !strings.Contains(methods, tt.method) {
				t.Fatalf("expected %s in allow methods, got %q", tt.method, methods)
			}
			allowed := rec.Header().Get("Access-Control-Allow-Headers")
			for _, h := range strings.Split(tt.headers, ",") {
				if !strings.Contains(allowed, strings.TrimSpace(h)) {
					t.Fatalf("expected %s in allow headers, got %q", h, allowed)
				}
			}
		})
	}
}

func TestCORSBareOptionsReachesHandler(t *testing.T) {
	called := false
	mw := CORS([]string{siteOrigin})
	req := httptest.NewRequest(http.MethodOptions, "/leads", nil)
	req.Header.Set("Origin", siteOrigin)
	rec := httptest.NewRecorder()

	mw(okHandler(&called)).ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to be called without Access-Control-Request-Method")
	}
}
