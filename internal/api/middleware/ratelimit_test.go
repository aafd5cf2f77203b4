package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"customer-registry/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	cfg := config.RateLimitConfig{
		Enabled: true,
		RPS:     1,
		Burst:   1,
	}

	t.Run("passes everything through when disabled", func(t *testing.T) {
		rl := NewRateLimiterMiddleware(config.RateLimitConfig{}, nil, logger)
		handler := rl.Middleware(okHandler())

		for i := 0; i < 5; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("blocks requests exceeding the in-memory limit", func(t *testing.T) {
		handler := NewRateLimiterMiddleware(cfg, nil, logger).Middleware(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "127.0.0.1:12345"

		rec1 := httptest.NewRecorder()
		handler.ServeHTTP(rec1, req)
		assert.Equal(t, http.StatusOK, rec1.Code)

		rec2 := httptest.NewRecorder()
		handler.ServeHTTP(rec2, req)
		assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
		assert.Equal(t, "1", rec2.Header().Get("Retry-After"))

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(rec2.Body).Decode(&response))
		assert.Equal(t, "Rate limit exceeded", response["error"].(map[string]interface{})["message"])
	})

	t.Run("limits each client separately", func(t *testing.T) {
		handler := NewRateLimiterMiddleware(cfg, nil, logger).Middleware(okHandler())

		for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = addr
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code, addr)
		}
	})

	t.Run("falls back to the in-memory limit when Redis is unreachable", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 50 * time.Millisecond,
			MaxRetries:  -1,
		})
		defer client.Close()

		handler := NewRateLimiterMiddleware(cfg, client, logger).Middleware(okHandler())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.10:5555"

		rec1 := httptest.NewRecorder()
		handler.ServeHTTP(rec1, req)
		assert.Equal(t, http.StatusOK, rec1.Code)

		rec2 := httptest.NewRecorder()
		handler.ServeHTTP(rec2, req)
		assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
	})

	t.Run("extractIP handles various headers", func(t *testing.T) {
		rl := NewRateLimiterMiddleware(cfg, nil, logger)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "192.168.1.1, 10.0.0.1")
		assert.Equal(t, "192.168.1.1", rl.extractIP(req))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", "10.0.0.1")
		assert.Equal(t, "10.0.0.1", rl.extractIP(req))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		assert.Equal(t, "127.0.0.1", rl.extractIP(req))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "not-an-address"
		assert.Equal(t, "unknown", rl.extractIP(req))
	})
}
