package middleware

import (
	"log/slog"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/order360/internal/pkg"
)

const (
	requestIDHeader     = "X-Request-ID"
	requestIDContextKey = "request_id"
)

// Accepted shape of a forwarded X-Request-ID.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// RequestIDConfig controls whether a forwarded X-Request-ID is reused.
type RequestIDConfig struct {
	TrustUpstream bool
}

// RequestID assigns a fresh request id to every request.
func RequestID() gin.HandlerFunc {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig tags each request with an id. A well-formed incoming
// X-Request-ID is kept only when TrustUpstream is set; otherwise a random
// UUID is used.
//
// The id is echoed in the X-Request-ID response header, added to every log
// record of the request, and forwarded to the order backend as its tracking
// id.
func RequestIDWithConfig(cfg RequestIDConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var id string
		if cfg.TrustUpstream {
			if h := c.GetHeader(requestIDHeader); requestIDPattern.MatchString(h) {
				id = h
			}
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(requestIDContextKey, id)
		c.Header(requestIDHeader, id)

		ctx := logger.WithContextAttrs(c.Request.Context(), slog.String("request_id", id))
		c.Request = c.Request.WithContext(pkg.WithRequestID(ctx, id))
		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDContextKey)
}
