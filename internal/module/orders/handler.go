package orders

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/order360/internal/domain"
	"github.com/simp-lee/order360/internal/orders"
	"github.com/simp-lee/order360/internal/pkg"
)

// OrderHandler handles REST API requests for orders.
type OrderHandler struct {
	svc domain.OrderService
}

// NewOrderHandler creates a new OrderHandler with the given service.
func NewOrderHandler(svc domain.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// List handles GET /api/v1/orders. It accepts the same query parameters as
// the list page.
func (h *OrderHandler) List(c *gin.Context) {
	state := orders.Decode(c.Request.URL.Query())

	result, err := h.svc.ListOrders(c.Request.Context(), state)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pager := orders.NewPager(state, result.TotalCount)
	pkg.Success(c, OrderListResponse{
		PageResult: domain.PageResult[domain.OrderSummary]{
			Items:      result.Orders,
			Total:      result.TotalCount,
			Page:       state.Page,
			PageSize:   state.PageSize,
			TotalPages: pager.TotalPages(),
		},
		Query:   orders.Canonical(state),
		Filters: state.Filters,
	})
}

// Get handles GET /api/v1/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.svc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, order)
}

// Process handles GET /api/v1/orders/:id/process.
func (h *OrderHandler) Process(c *gin.Context) {
	view, err := h.svc.GetProcess(c.Request.Context(), c.Param("id"))
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, view)
}
