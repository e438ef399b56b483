package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/simp-lee/order360/internal/metrics"
	"github.com/simp-lee/order360/internal/pkg"
)

// clientIdleTTL is how long a client's limiter is kept after its last request.
const clientIdleTTL = 10 * time.Minute

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	clients   sync.Map // ip -> *clientLimiter
	limit     rate.Limit
	burst     int
	lastSweep atomic.Int64
	now       func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// NewRateLimiter creates a limiter allowing rps requests per second per
// client with bursts of up to burst requests.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	l := &RateLimiter{limit: rate.Limit(rps), burst: burst, now: time.Now}
	l.lastSweep.Store(l.now().UnixNano())
	return l
}

func (l *RateLimiter) client(ip string) *clientLimiter {
	if v, ok := l.clients.Load(ip); ok {
		return v.(*clientLimiter)
	}
	v, _ := l.clients.LoadOrStore(ip, &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)})
	return v.(*clientLimiter)
}

// sweep drops limiters of clients idle for longer than clientIdleTTL. It
// runs at most once per TTL.
func (l *RateLimiter) sweep(now time.Time) {
	last := l.lastSweep.Load()
	if now.UnixNano()-last < int64(clientIdleTTL) || !l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	cutoff := now.Add(-clientIdleTTL).UnixNano()
	l.clients.Range(func(key, value any) bool {
		if value.(*clientLimiter).lastSeen.Load() < cutoff {
			l.clients.Delete(key)
		}
		return true
	})
}

// Middleware rejects requests over the limit with 429. API clients get the
// JSON envelope, htmx requests an error toast.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		now := l.now()
		l.sweep(now)

		cl := l.client(c.ClientIP())
		cl.lastSeen.Store(now.UnixNano())
		if cl.limiter.AllowN(now, 1) {
			c.Next()
			return
		}

		metrics.RateLimitedTotal.Inc()
		slog.WarnContext(c.Request.Context(), "rate limit exceeded",
			slog.String("client_ip", c.ClientIP()),
			slog.String("path", c.Request.URL.Path))

		c.Header("Retry-After", "1")
		if pkg.IsHTMX(c) {
			c.Header("HX-Reswap", "none")
			pkg.ShowToast(c, "Too many requests. Please slow down.", "error")
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, pkg.Response{
				Code:    http.StatusTooManyRequests,
				Message: "too many requests",
			})
			return
		}
		c.AbortWithStatus(http.StatusTooManyRequests)
	}
}

// Len returns the number of tracked clients.
func (l *RateLimiter) Len() int {
	n := 0
	l.clients.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}
