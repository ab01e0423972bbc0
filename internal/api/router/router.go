package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/callkaidsroofing/lead-intake/internal/http/handlers"
	httpmiddleware "github.com/callkaidsroofing/lead-intake/internal/http/middleware"
	"github.com/callkaidsroofing/lead-intake/internal/leads"
	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger       *logging.Logger
	LeadsHandler *leads.Handler
	// LeadLimiter throttles POST /leads per client IP. Nil disables it.
	LeadLimiter        httpmiddleware.Limiter
	HTTPObserver       httpmiddleware.HTTPObserver
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Admin dashboard dependencies (optional)
	AdminAuthSecret string
	AdminLeads      *handlers.AdminLeadsHandler
	AdminDashboard  *handlers.AdminDashboardHandler

	// Readiness checks the backing store; nil means always ready.
	Readiness func(ctx context.Context) error
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger, cfg.HTTPObserver))

	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(nil))
		public.Get("/ready", healthHandler(cfg.Readiness))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.LeadsHandler != nil {
			leadRoute := public
			if cfg.LeadLimiter != nil {
				leadRoute = public.With(httpmiddleware.RateLimit(cfg.LeadLimiter, cfg.Logger))
			}
			leadRoute.Post("/leads", cfg.LeadsHandler.Submit)
		}
	})

	if cfg.AdminAuthSecret != "" && (cfg.AdminLeads != nil || cfg.AdminDashboard != nil) {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Use(middleware.Compress(5))
			if cfg.AdminLeads != nil {
				admin.Get("/leads", cfg.AdminLeads.ListLeads)
				admin.Get("/leads/export.csv", cfg.AdminLeads.ExportLeads)
				admin.Get("/leads/{leadID}", cfg.AdminLeads.GetLead)
				admin.Patch("/leads/{leadID}/status", cfg.AdminLeads.UpdateLeadStatus)
			}
			if cfg.AdminDashboard != nil {
				admin.Get("/dashboard/stats", cfg.AdminDashboard.GetDashboardOverview)
			}
		})
	}

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
