package view

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/order360/internal/domain"
	"github.com/simp-lee/order360/internal/pkg"
)

// ViewHandler handles REST API requests for saved views.
type ViewHandler struct {
	svc domain.SavedViewService
}

// NewViewHandler creates a new ViewHandler with the given service.
func NewViewHandler(svc domain.SavedViewService) *ViewHandler {
	return &ViewHandler{svc: svc}
}

// Create handles POST /api/v1/views.
func (h *ViewHandler) Create(c *gin.Context) {
	var req SaveViewRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	v, err := h.svc.SaveView(c.Request.Context(), req.Name, req.Description, req.State())
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Created(c, newViewResponse(*v))
}

// Get handles GET /api/v1/views/:id.
func (h *ViewHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	v, err := h.svc.GetView(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, newViewResponse(*v))
}

// List handles GET /api/v1/views.
func (h *ViewHandler) List(c *gin.Context) {
	result, err := h.svc.ListViews(c.Request.Context(), pkg.ParsePageRequest(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}

	items := make([]ViewResponse, 0, len(result.Items))
	for _, v := range result.Items {
		items = append(items, newViewResponse(v))
	}
	pkg.Success(c, domain.PageResult[ViewResponse]{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

// Delete handles DELETE /api/v1/views/:id.
func (h *ViewHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	if err := h.svc.DeleteView(c.Request.Context(), id); err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, nil)
}

// parseID extracts and validates the "id" URL parameter.
func parseID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 || id > uint64(^uint(0)) {
		return 0, fmt.Errorf("invalid id: %s", idStr)
	}
	return uint(id), nil
}
