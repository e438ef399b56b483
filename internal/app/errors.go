package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/order360/internal/pkg"
)

// errorTemplates maps HTTP status codes to their error template paths.
var errorTemplates = map[int]string{
	http.StatusBadRequest:          "errors/400.html",
	http.StatusNotFound:            "errors/404.html",
	http.StatusInternalServerError: "errors/500.html",
	http.StatusBadGateway:          "errors/502.html",
}

// renderError answers an unrouted or failed request in the client's terms:
// htmx requests get an error toast and no swap, API and JSON clients the
// response envelope, browsers the error page for code.
func renderError(c *gin.Context, code int, message string) {
	if pkg.IsHTMX(c) {
		c.Header("HX-Reswap", "none")
		pkg.ShowToast(c, message, "error")
		c.AbortWithStatus(code)
		return
	}

	accept := strings.ToLower(c.GetHeader("Accept"))
	// Checked first: acceptsHTML also matches */*.
	if strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html") {
		c.JSON(code, pkg.Response{Code: code, Message: message})
		return
	}
	if acceptsHTML(c) {
		renderHTMLErrorPage(c, code, message)
		return
	}
	c.JSON(code, pkg.Response{Code: code, Message: message})
}

// renderHTMLErrorPage renders the error template for code, using
// errors/500.html for unmapped codes and plain text if rendering panics.
func renderHTMLErrorPage(c *gin.Context, code int, message string) {
	defer func() {
		if r := recover(); r != nil {
			c.Data(code, "text/plain; charset=utf-8",
				[]byte(fmt.Sprintf("%d %s", code, defaultStatusText(code))))
		}
	}()

	tmpl, ok := errorTemplates[code]
	if !ok {
		tmpl = errorTemplates[http.StatusInternalServerError]
	}
	c.HTML(code, tmpl, gin.H{"Message": message})
}

// acceptsHTML reports whether the client accepts HTML: text/html, */* or no
// Accept header at all.
func acceptsHTML(c *gin.Context) bool {
	accept := strings.ToLower(c.GetHeader("Accept"))
	return strings.Contains(accept, "text/html") ||
		strings.Contains(accept, "*/*") ||
		strings.TrimSpace(accept) == ""
}

// defaultStatusText returns a short label for the error codes this app emits.
func defaultStatusText(code int) string {
	switch code {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusRequestTimeout,
		http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway:
		return http.StatusText(code)
	default:
		return "Error"
	}
}
