package view

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/order360/internal/domain"
	"github.com/simp-lee/order360/internal/middleware"
	"github.com/simp-lee/order360/internal/pkg"
)

// ViewPageHandler handles the saved view pages and htmx endpoints.
type ViewPageHandler struct {
	svc domain.SavedViewService
}

// NewViewPageHandler creates a new ViewPageHandler with the given service.
func NewViewPageHandler(svc domain.SavedViewService) *ViewPageHandler {
	return &ViewPageHandler{svc: svc}
}

// ListPage renders the saved views with pagination.
// GET /views
func (h *ViewPageHandler) ListPage(c *gin.Context) {
	req := pkg.ParsePageRequest(c)

	result, err := h.svc.ListViews(c.Request.Context(), req)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "list saved views failed", slog.Any("error", err))
		c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{})
		return
	}

	items := make([]ViewResponse, 0, len(result.Items))
	for _, v := range result.Items {
		items = append(items, newViewResponse(v))
	}

	c.HTML(http.StatusOK, "views/list.html", gin.H{
		"Views":      items,
		"Pagination": result,
		"BaseURL":    "/views",
		"Search":     req.Search,
		"CSRFToken":  middleware.GetCSRFToken(c),
	})
}

// SaveHTMX saves the list state submitted from the order list.
// POST /views
func (h *ViewPageHandler) SaveHTMX(c *gin.Context) {
	c.Header("HX-Reswap", "none")

	var req SaveViewRequest
	if err := c.ShouldBind(&req); err != nil {
		slog.Debug("save view: bind error", slog.Any("error", err))
		pkg.ShowToast(c, "Please enter a name of at most 100 characters.", "error")
		c.Status(http.StatusOK)
		return
	}

	v, err := h.svc.SaveView(c.Request.Context(), req.Name, req.Description, req.State())
	if err != nil {
		pkg.ShowToast(c, pkg.SafeMessage(err, "The view could not be saved. Please try again."), "error")
		c.Status(http.StatusOK)
		return
	}

	pkg.ShowToast(c, "View \""+v.Name+"\" saved.", "success")
	c.Status(http.StatusOK)
}

// OpenPage redirects to the order list with the view's state applied.
// GET /views/:id
func (h *ViewPageHandler) OpenPage(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.HTML(http.StatusBadRequest, "errors/400.html", gin.H{})
		return
	}

	v, err := h.svc.GetView(c.Request.Context(), id)
	if err != nil {
		status, tmpl := pkg.ErrorPage(err)
		c.HTML(status, tmpl, gin.H{})
		return
	}

	c.Redirect(http.StatusSeeOther, listURL(*v))
}

// DeleteHTMX deletes a saved view. The emptied response replaces the row.
// DELETE /views/:id
func (h *ViewPageHandler) DeleteHTMX(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.Header("HX-Reswap", "none")
		pkg.ShowToast(c, "Invalid view id.", "error")
		c.Status(http.StatusOK)
		return
	}

	if err := h.svc.DeleteView(c.Request.Context(), id); err != nil {
		c.Header("HX-Reswap", "none")
		if domain.IsNotFound(err) {
			pkg.ShowToast(c, "The view does not exist or was already deleted.", "error")
		} else {
			pkg.ShowToast(c, "Delete failed. Please try again.", "error")
		}
		c.Status(http.StatusOK)
		return
	}

	pkg.ShowToast(c, "View deleted.", "success")
	c.Status(http.StatusOK)
}
