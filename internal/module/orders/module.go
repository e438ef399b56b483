package orders

import "github.com/gin-gonic/gin"

// OrderModule implements the app.Module interface for order browsing.
type OrderModule struct {
	handler     *OrderHandler
	pageHandler *OrderPageHandler
}

// NewModule creates a new OrderModule with the given handlers.
// Panics if h or ph is nil.
func NewModule(h *OrderHandler, ph *OrderPageHandler) *OrderModule {
	if h == nil {
		panic("orders.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("orders.NewModule: pageHandler must not be nil")
	}
	return &OrderModule{handler: h, pageHandler: ph}
}

// Name implements app.Module.
func (m *OrderModule) Name() string { return "orders" }

// RegisterRoutes registers order API and page routes.
func (m *OrderModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/orders", m.handler.List)
	api.GET("/orders/:id", m.handler.Get)
	api.GET("/orders/:id/process", m.handler.Process)

	pages.GET("/orders", m.pageHandler.ListPage)
	pages.GET("/orders/filters", m.pageHandler.FilterForm)
	pages.GET("/orders/:id", m.pageHandler.DetailPage)
	pages.GET("/orders/:id/process", m.pageHandler.ProcessPage)
}
