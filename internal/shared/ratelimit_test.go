package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()
	if cfg.RequestsPerSecond != 5 {
		t.Errorf("RequestsPerSecond = %f, want 5", cfg.RequestsPerSecond)
	}
	if cfg.Burst != 10 {
		t.Errorf("Burst = %d, want 10", cfg.Burst)
	}
	if cfg.IdleTimeout != 5*time.Minute {
		t.Errorf("IdleTimeout = %v, want 5m", cfg.IdleTimeout)
	}
}

func TestRateLimiterStore_GetLimiter(t *testing.T) {
	store := newRateLimiterStore(RateLimiterConfig{RequestsPerSecond: 10, Burst: 20})

	limiter1 := store.getLimiter("key1")
	if limiter1 == nil {
		t.Fatal("expected limiter to be created")
	}
	if limiter2 := store.getLimiter("key1"); limiter1 != limiter2 {
		t.Error("expected same limiter to be returned")
	}
	if limiter3 := store.getLimiter("key2"); limiter1 == limiter3 {
		t.Error("expected different limiter for different key")
	}
}

func limitedHandler(cfg RateLimiterConfig) echo.HandlerFunc {
	return RateLimiter(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	})
}

func TestRateLimiter_BlocksExcessiveRequests(t *testing.T) {
	e := echo.New()
	handler := limitedHandler(RateLimiterConfig{RequestsPerSecond: 1, Burst: 1})

	blocked := 0
	for n := 0; n < 5; n++ {
		req := httptest.NewRequest(http.MethodPost, "/api/unified", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		err := handler(e.NewContext(req, httptest.NewRecorder()))

		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusTooManyRequests {
			blocked++
		}
	}

	if blocked < 3 {
		t.Errorf("expected most requests to be blocked, got %d", blocked)
	}
}

func TestRateLimiter_SeparatesClients(t *testing.T) {
	e := echo.New()
	handler := limitedHandler(RateLimiterConfig{RequestsPerSecond: 1, Burst: 1})

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.3:1"} {
		req := httptest.NewRequest(http.MethodPost, "/api/unified", nil)
		req.RemoteAddr = addr
		if err := handler(e.NewContext(req, httptest.NewRecorder())); err != nil {
			t.Errorf("first request from %s should pass: %v", addr, err)
		}
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	e := echo.New()
	handler := limitedHandler(RateLimiterConfig{})

	for n := 0; n < 50; n++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if err := handler(e.NewContext(req, httptest.NewRecorder())); err != nil {
			t.Fatalf("disabled limiter rejected a request: %v", err)
		}
	}
}
