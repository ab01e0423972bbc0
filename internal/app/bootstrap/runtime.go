package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/callkaidsroofing/lead-intake/internal/config"
	httpmiddleware "github.com/callkaidsroofing/lead-intake/internal/http/middleware"
	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildLeadLimiter returns the POST /leads limiter: shared through Redis when a
// client is available, per process otherwise. A zero rate disables limiting.
func BuildLeadLimiter(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) httpmiddleware.Limiter {
	if cfg == nil || cfg.RateLimitPerMinute <= 0 {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if redisClient != nil {
		logger.Info("lead rate limit backed by redis", "per_minute", cfg.RateLimitPerMinute)
		return httpmiddleware.NewRedisLimiter(redisClient, "ratelimit:leads", cfg.RateLimitPerMinute, time.Minute)
	}
	logger.Info("lead rate limit in process", "per_minute", cfg.RateLimitPerMinute, "burst", cfg.RateLimitBurst)
	return httpmiddleware.NewPerMinuteLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
}

// BuildPostgresPool connects when a database URL is configured.
func BuildPostgresPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
