package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/order360/internal/domain"
	"github.com/simp-lee/order360/internal/middleware"
	"github.com/simp-lee/order360/internal/pkg"
)

// DashboardPageHandler renders the home dashboard.
type DashboardPageHandler struct {
	svc domain.DashboardService
}

func NewDashboardPageHandler(svc domain.DashboardService) *DashboardPageHandler {
	return &DashboardPageHandler{svc: svc}
}

// HomePage renders metrics, distributions and trends. When the backend is
// down the page still renders, with empty panels and a notice.
// GET /
func (h *DashboardPageHandler) HomePage(c *gin.Context) {
	o, err := h.svc.Overview(c.Request.Context())
	notice := ""
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "dashboard unavailable", slog.Any("error", err))
		o = &domain.Overview{
			Channels:          []domain.DistributionEntry{},
			BusinessProcesses: []domain.DistributionEntry{},
			Failed:            []string{PanelMetrics, PanelChannels, PanelBusinessProcesses, PanelTrends},
		}
		notice = pkg.SafeMessage(err, "The dashboard could not be loaded. Please try again.")
	}

	failed := make(map[string]bool, len(o.Failed))
	for _, p := range o.Failed {
		failed[p] = true
	}

	c.HTML(http.StatusOK, "home.html", gin.H{
		"Overview":  o,
		"Failed":    failed,
		"Notice":    notice,
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}
