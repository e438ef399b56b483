package view

import "github.com/gin-gonic/gin"

// ViewModule implements the app.Module interface for saved views.
type ViewModule struct {
	handler     *ViewHandler
	pageHandler *ViewPageHandler
}

// NewModule creates a new ViewModule with the given handlers.
// Panics if h or ph is nil.
func NewModule(h *ViewHandler, ph *ViewPageHandler) *ViewModule {
	if h == nil {
		panic("view.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("view.NewModule: pageHandler must not be nil")
	}
	return &ViewModule{handler: h, pageHandler: ph}
}

// Name implements app.Module.
func (m *ViewModule) Name() string { return "views" }

// RegisterRoutes registers saved view API and page routes.
func (m *ViewModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/views", m.handler.List)
	api.POST("/views", m.handler.Create)
	api.GET("/views/:id", m.handler.Get)
	api.DELETE("/views/:id", m.handler.Delete)

	pages.GET("/views", m.pageHandler.ListPage)
	pages.POST("/views", m.pageHandler.SaveHTMX)
	pages.GET("/views/:id", m.pageHandler.OpenPage)
	pages.DELETE("/views/:id", m.pageHandler.DeleteHTMX)
}
