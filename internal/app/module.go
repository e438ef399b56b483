package app

import "github.com/gin-gonic/gin"

// Module is one feature area of the dashboard (orders, dashboard, saved
// views). Modules mount their JSON routes on api (/api/v1) and their HTML
// and htmx routes on pages, which carries the CSRF and view session
// middleware.
type Module interface {
	Name() string
	RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup)
}
