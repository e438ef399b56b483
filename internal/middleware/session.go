package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	viewSessionCookieName = "_view_session"
	viewSessionContextKey = "view_session"
	viewSessionMaxAge     = 12 * 60 * 60
)

// ViewSession returns a gin middleware that gives every browser a stable,
// anonymous session id. The order list uses it to recognize queries that a
// newer query from the same browser has superseded.
func ViewSession() gin.HandlerFunc {
	secure := gin.Mode() == gin.ReleaseMode
	return func(c *gin.Context) {
		id, err := c.Cookie(viewSessionCookieName)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     viewSessionCookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   viewSessionMaxAge,
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Set(viewSessionContextKey, id)
		c.Next()
	}
}

// GetViewSession returns the session id set by ViewSession, or "".
func GetViewSession(c *gin.Context) string {
	if v, ok := c.Get(viewSessionContextKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
