package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/callkaidsroofing/lead-intake/cmd/mainconfig"
	"github.com/callkaidsroofing/lead-intake/internal/api/router"
	"github.com/callkaidsroofing/lead-intake/internal/app/bootstrap"
	appconfig "github.com/callkaidsroofing/lead-intake/internal/config"
	"github.com/callkaidsroofing/lead-intake/internal/http/handlers"
	"github.com/callkaidsroofing/lead-intake/internal/leads"
	"github.com/callkaidsroofing/lead-intake/internal/observability/metrics"
	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.NewWithOptions(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "lead-intake",
	})
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("starting lead intake API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"lead_store", cfg.LeadStore,
		"email_provider", cfg.EmailProvider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	metricsHandler, leadMetrics := setupMetrics()

	var awsCfg *aws.Config
	if mainconfig.NeedsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("load AWS config: %w", err)
		}
		awsCfg = &loaded
	}

	pool, err := bootstrap.BuildPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if pool != nil {
		defer pool.Close()
	}

	dispatcher := bootstrap.BuildDispatcher(cfg, bootstrap.DispatchDeps{
		AWS:     awsCfg,
		Pool:    pool,
		Metrics: leadMetrics,
	}, logger)

	store, err := bootstrap.BuildLeadStore(cfg, pool, dispatcher, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	if store.Deliverer != nil {
		go store.Deliverer.Start(ctx)
	}

	intake := leads.NewIntake(store.Sink, nil, leads.IntakeConfig{
		FallbackPhone:   cfg.FallbackPhone,
		ThankYouPath:    cfg.ThankYouPath,
		MinFillDuration: cfg.MinFillDuration,
	}, logger).WithObserver(leadMetrics)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	leadLimiter := bootstrap.BuildLeadLimiter(cfg, redisClient, logger)
	if closer, ok := leadLimiter.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	routerCfg := &router.Config{
		Logger:             logger,
		LeadsHandler:       leads.NewHandler(intake, logger),
		LeadLimiter:        leadLimiter,
		HTTPObserver:       leadMetrics,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		AdminLeads:         handlers.NewAdminLeadsHandler(store.Repo, logger),
		Readiness:          store.Ping,
	}
	if store.DB != nil {
		routerCfg.AdminDashboard = handlers.NewAdminDashboardHandler(store.DB, logger)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// setupMetrics registers the lead metrics with runtime collectors on a private
// registry.
func setupMetrics() (http.Handler, *metrics.LeadMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), metrics.NewLeadMetrics(registry)
}
