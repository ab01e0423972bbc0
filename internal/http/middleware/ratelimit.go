package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

// Limiter decides whether key may make another request now.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimiter provides per-IP rate limiting using a token bucket algorithm.
// It is process-local; use RedisLimiter when several instances serve traffic.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens per second
	burst   int     // max tokens
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	tokens   float64
	lastTime time.Time
}

// NewRateLimiter creates a rate limiter allowing rate requests/sec with the
// given burst size per IP.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	// Periodically evict stale entries until Close.
	go rl.cleanup(5 * time.Minute)
	return rl
}

// NewPerMinuteLimiter allows perMinute requests per IP, refilled evenly.
func NewPerMinuteLimiter(perMinute, burst int) *RateLimiter {
	return NewRateLimiter(float64(perMinute)/60, burst)
}

// Allow reports whether the request from ip is within the rate limit.
func (rl *RateLimiter) Allow(_ context.Context, ip string) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{tokens: float64(rl.burst), lastTime: now}
		rl.buckets[ip] = b
	}

	elapsed := now.Sub(b.lastTime).Seconds()
	b.tokens += elapsed * rl.rate
	if b.tokens > float64(rl.burst) {
		b.tokens = float64(rl.burst)
	}
	b.lastTime = now

	if b.tokens < 1 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// Close stops the eviction goroutine. It is safe to call more than once.
func (rl *RateLimiter) Close() error {
	rl.stopOnce.Do(func() { close(rl.stop) })
	return nil
}

func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictIdle(rl.now().Add(-10 * time.Minute))
		}
	}
}

// evictIdle drops buckets untouched since cutoff.
func (rl *RateLimiter) evictIdle(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, b := range rl.buckets {
		if b.lastTime.Before(cutoff) {
			delete(rl.buckets, ip)
		}
	}
}

// RateLimit returns an HTTP middleware that rejects requests exceeding the
// limiter with 429 Too Many Requests. A limiter error lets the request through
// so a Redis outage never blocks a customer from sending a quote request.
func RateLimit(limiter Limiter, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			ok, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				logger.Warn("rate limiter unavailable", "error", err)
				ok = true
			}
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(60))
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many requests. Please wait a minute and try again.",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	// Prefer X-Real-Ip set by chi's RealIP middleware.
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
