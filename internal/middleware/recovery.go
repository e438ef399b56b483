package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/order360/internal/metrics"
	"github.com/simp-lee/order360/internal/pkg"
)

const msgInternal = "Something went wrong. Please try again."

// Recovery returns a gin middleware that recovers from panics, logs them with
// their stack trace, and answers the client in its own terms: htmx requests
// get an error toast and no swap, browsers the errors/500.html page, and
// everyone else the JSON envelope.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			metrics.PanicsTotal.Inc()
			logger.ErrorContext(c.Request.Context(), "panic recovered",
				slog.Any("panic", err),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("stack", string(debug.Stack())),
			)

			switch {
			case pkg.IsHTMX(c):
				c.Header("HX-Reswap", "none")
				pkg.ShowToast(c, msgInternal, "error")
				c.AbortWithStatus(http.StatusInternalServerError)
			case acceptsHTML(c):
				c.Abort()
				renderHTMLError(c)
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, pkg.Response{
					Code:    http.StatusInternalServerError,
					Message: "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// renderHTMLError renders errors/500.html, falling back to plain text when
// no HTML renderer is configured or rendering fails.
func renderHTMLError(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("500 Internal Server Error"))
		}
	}()
	c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{"Message": msgInternal})
}

// acceptsHTML reports whether the Accept header asks for text/html.
func acceptsHTML(c *gin.Context) bool {
	return strings.Contains(strings.ToLower(c.GetHeader("Accept")), "text/html")
}
