package pkg

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/order360/internal/domain"
)

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// ShowToast sets the HX-Trigger response header with a showToast event.
func ShowToast(c *gin.Context, message, toastType string) {
	trigger, _ := json.Marshal(map[string]any{
		"showToast": map[string]string{
			"message": message,
			"type":    toastType,
		},
	})
	c.Header("HX-Trigger", string(trigger))
}

// Messages shown to operators when the order backend fails.
const (
	MsgUpstream     = "The order service is unavailable. Please try again later."
	MsgUnauthorized = "The order service rejected our credentials. Please contact an administrator."
)

// SafeMessage extracts an operator-safe message from err. Messages of
// user-facing codes are returned as-is, backend failures get a fixed text,
// and anything else yields fallback.
func SafeMessage(err error, fallback string) string {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		return fallback
	}
	switch appErr.Code {
	case domain.CodeNotFound, domain.CodeAlreadyExists, domain.CodeValidation:
		if appErr.Message != "" {
			return appErr.Message
		}
	case domain.CodeUpstream:
		return MsgUpstream
	case domain.CodeUnauthorized:
		return MsgUnauthorized
	}
	return fallback
}

// ErrorPage returns the status and error template for err.
func ErrorPage(err error) (int, string) {
	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound, "errors/404.html"
	case domain.IsValidation(err):
		return http.StatusBadRequest, "errors/400.html"
	case domain.IsUpstream(err), domain.IsUnauthorized(err):
		return http.StatusBadGateway, "errors/502.html"
	default:
		return http.StatusInternalServerError, "errors/500.html"
	}
}
