package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"customer-registry/internal/config"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimiterMiddleware counts requests per client IP in a Redis fixed window when Redis is
// configured and reachable, and in a local token bucket otherwise.
type RateLimiterMiddleware struct {
	redisClient *redis.Client
	limiters    sync.Map
	cfg         config.RateLimitConfig
	logger      *slog.Logger
	window      time.Duration
}

func NewRateLimiterMiddleware(
	cfg config.RateLimitConfig,
	redisClient *redis.Client,
	logger *slog.Logger,
) *RateLimiterMiddleware {
	logger = logger.With("component", "RateLimiter")

	switch {
	case !cfg.Enabled:
		logger.Info("Rate limiting is disabled via configuration.")
	case redisClient == nil:
		logger.Info("Rate limiter using in-memory token buckets", "rps", cfg.RPS, "burst", cfg.Burst)
	default:
		logger.Info("Rate limiter using Redis fixed window", "rps", cfg.RPS, "window", time.Second)
	}

	rl := &RateLimiterMiddleware{
		redisClient: redisClient,
		cfg:         cfg,
		logger:      logger,
		window:      time.Second,
	}
	if cfg.Enabled {
		go rl.cleanupLimiters()
	}
	return rl
}

func (rl *RateLimiterMiddleware) IsEnabled() bool {
	return rl.cfg.Enabled
}

func (rl *RateLimiterMiddleware) getLimiter(ip string) *rate.Limiter {
	burst := rl.cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limiter, _ := rl.limiters.LoadOrStore(ip, rate.NewLimiter(rate.Limit(rl.cfg.RPS), burst))
	return limiter.(*rate.Limiter)
}

func (rl *RateLimiterMiddleware) cleanupLimiters() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.limiters.Range(func(key, value interface{}) bool {
			limiter := value.(*rate.Limiter)
			if limiter.Tokens() >= float64(limiter.Burst()) {
				rl.limiters.Delete(key)
			}
			return true
		})
	}
}

func (rl *RateLimiterMiddleware) extractIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		ip := strings.TrimSpace(ips[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	xRealIP := r.Header.Get("X-Real-IP")
	if xRealIP != "" {
		ip := strings.TrimSpace(xRealIP)
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return ip
	}

	parsedIP := net.ParseIP(r.RemoteAddr)
	if parsedIP != nil {
		return parsedIP.String()
	}

	rl.logger.Warn("Could not determine client IP for rate limiting", "remoteAddr", r.RemoteAddr, "x-forwarded-for", xff, "x-real-ip", xRealIP)
	return "unknown"
}

// allowRedis reports whether the request fits the current window; ok is false when Redis failed.
func (rl *RateLimiterMiddleware) allowRedis(r *http.Request, ip string) (allowed, ok bool) {
	ctx := r.Context()
	key := rateLimitKeyPrefix + ip

	pipe := rl.redisClient.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	ttlCmd := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		rl.logger.Error("Redis pipeline failed during rate limiting check", "error", err, "ip", ip, "key", key)
		return false, false
	}

	currentCount, err := incrCmd.Result()
	if err != nil {
		rl.logger.Error("Failed to get INCR result after pipeline exec", "error", err, "ip", ip, "key", key)
		return false, false
	}

	// -1 means no expiry yet, -2 means the key vanished between INCR and TTL.
	if ttl, err := ttlCmd.Result(); err == nil && (ttl == -1 || ttl == -2) {
		if err := rl.redisClient.Expire(ctx, key, rl.window).Err(); err != nil {
			rl.logger.Error("Failed to set Redis EXPIRE for rate limit key", "error", err, "ip", ip, "key", key)
		}
	}

	return currentCount <= int64(rl.cfg.RPS), true
}

func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	if !rl.IsEnabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.extractIP(r)
		if ip == "unknown" {
			rl.logger.Error("Blocking request due to unknown client IP for rate limiting")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		allowed, ok := false, false
		if rl.redisClient != nil {
			allowed, ok = rl.allowRedis(r, ip)
		}
		if !ok {
			allowed = rl.getLimiter(ip).Allow()
		}

		if !allowed {
			rl.logger.Warn("Rate limit exceeded", "ip", ip, "limit", rl.cfg.RPS)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", rl.window.Seconds()))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{
					"message": "Rate limit exceeded",
				},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
