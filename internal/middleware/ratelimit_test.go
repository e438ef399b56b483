package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newRateLimitRouter(l *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(l.Middleware())
	r.GET("/api/v1/orders", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/orders", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hit(r http.Handler, path, ip string, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = ip + ":1234"
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewRateLimiter(1, 2)
	l.now = func() time.Time { return now }
	r := newRateLimitRouter(l)

	for i := range 2 {
		if w := hit(r, "/api/v1/orders", "10.0.0.1", false); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	w := hit(r, "/api/v1/orders", "10.0.0.1", false)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"too many requests"`) || w.Header().Get("Retry-After") == "" {
		t.Errorf("unexpected 429 response: %q", w.Body.String())
	}

	// Other clients have their own bucket.
	if w := hit(r, "/api/v1/orders", "10.0.0.2", false); w.Code != http.StatusOK {
		t.Errorf("other client: expected 200, got %d", w.Code)
	}

	// Tokens refill over time.
	now = now.Add(time.Second)
	if w := hit(r, "/api/v1/orders", "10.0.0.1", false); w.Code != http.StatusOK {
		t.Errorf("after refill: expected 200, got %d", w.Code)
	}
}

func TestRateLimiter_HTMXGetsToast(t *testing.T) {
	l := NewRateLimiter(0.001, 1)
	r := newRateLimitRouter(l)

	hit(r, "/orders", "10.0.0.3", true)
	w := hit(r, "/orders", "10.0.0.3", true)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("HX-Reswap") != "none" || !strings.Contains(w.Header().Get("HX-Trigger"), "showToast") {
		t.Errorf("expected htmx toast headers, got %v", w.Header())
	}
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := NewRateLimiter(10, 10)
	l.now = func() time.Time { return now }
	l.lastSweep.Store(now.UnixNano())
	r := newRateLimitRouter(l)

	hit(r, "/orders", "10.0.0.4", false)
	hit(r, "/orders", "10.0.0.5", false)
	if l.Len() != 2 {
		t.Fatalf("expected 2 clients, got %d", l.Len())
	}

	now = now.Add(clientIdleTTL + time.Second)
	hit(r, "/orders", "10.0.0.6", false)
	if l.Len() != 1 {
		t.Errorf("expected idle clients swept, got %d", l.Len())
	}
}
