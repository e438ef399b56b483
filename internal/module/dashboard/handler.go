package dashboard

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/order360/internal/domain"
	"github.com/simp-lee/order360/internal/pkg"
)

// DashboardHandler serves the dashboard overview as JSON.
type DashboardHandler struct {
	svc domain.DashboardService
}

func NewDashboardHandler(svc domain.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Overview handles GET /api/v1/dashboard.
func (h *DashboardHandler) Overview(c *gin.Context) {
	o, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, o)
}
