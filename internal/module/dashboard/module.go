package dashboard

import "github.com/gin-gonic/gin"

// DashboardModule implements the app.Module interface for the home dashboard.
type DashboardModule struct {
	handler     *DashboardHandler
	pageHandler *DashboardPageHandler
}

// NewModule creates a new DashboardModule with the given handlers.
// Panics if h or ph is nil.
func NewModule(h *DashboardHandler, ph *DashboardPageHandler) *DashboardModule {
	if h == nil {
		panic("dashboard.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("dashboard.NewModule: pageHandler must not be nil")
	}
	return &DashboardModule{handler: h, pageHandler: ph}
}

// Name implements app.Module.
func (m *DashboardModule) Name() string { return "dashboard" }

// RegisterRoutes registers the dashboard API route and the home page.
func (m *DashboardModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/dashboard", m.handler.Overview)
	pages.GET("/", m.pageHandler.HomePage)
}
