package orders

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/order360/internal/domain"
	"github.com/simp-lee/order360/internal/metrics"
	"github.com/simp-lee/order360/internal/middleware"
	"github.com/simp-lee/order360/internal/orders"
	"github.com/simp-lee/order360/internal/pkg"
)

const listBaseURL = "/orders"

// OrderPageHandler renders the order pages and their htmx fragments.
type OrderPageHandler struct {
	svc         domain.OrderService
	latest      *orders.Latest
	catalog     orders.Catalog
	phoneRegion string
}

// NewOrderPageHandler creates a new OrderPageHandler. phoneRegion is the
// ISO region used to format contact numbers written without a country code.
func NewOrderPageHandler(svc domain.OrderService, latest *orders.Latest, phoneRegion string) *OrderPageHandler {
	if latest == nil {
		latest = orders.NewLatest()
	}
	return &OrderPageHandler{
		svc:         svc,
		latest:      latest,
		catalog:     orders.FilterCatalog(),
		phoneRegion: phoneRegion,
	}
}

// ListPage renders the order list for the state in the query string.
// htmx requests receive only the results fragment (table and pagination) and
// an HX-Push-Url with the canonical list URL. Full page loads with a
// non-canonical query are redirected to the canonical URL.
// GET /orders
func (h *OrderPageHandler) ListPage(c *gin.Context) {
	query := c.Request.URL.Query()
	state := orders.Decode(query)
	htmx := pkg.IsHTMX(c)
	canonical := orders.URL(listBaseURL, state)

	if !htmx && query.Encode() != orders.Canonical(state) {
		c.Redirect(http.StatusFound, canonical)
		return
	}

	// Only htmx updates of an open list supersede each other; a full page
	// load in another tab must not cancel this one.
	session := ""
	if htmx {
		session = middleware.GetViewSession(c)
	}
	ctx, ticket := h.latest.Begin(c.Request.Context(), session, orders.Canonical(state))

	result, err := h.svc.ListOrders(ctx, state)
	if !h.latest.Commit(ticket) {
		metrics.StaleResponsesTotal.Inc()
		slog.DebugContext(c.Request.Context(), "discarding superseded order query",
			slog.String("query", ticket.Snapshot))
		c.Header("HX-Reswap", "none")
		c.Status(http.StatusNoContent)
		return
	}

	notice := ""
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "order list unavailable",
			slog.String("query", ticket.Snapshot), slog.Any("error", err))
		result = &domain.QueryResult{Orders: []domain.OrderSummary{}}
		notice = pkg.SafeMessage(err, "Orders could not be loaded. Please try again.")
		if htmx {
			pkg.ShowToast(c, notice, "error")
		}
	}

	data := h.listData(c, state, result)
	data["Notice"] = notice

	if htmx {
		c.Header("HX-Push-Url", canonical)
		c.HTML(http.StatusOK, "orders/list.html#results", data)
		return
	}
	c.HTML(http.StatusOK, "orders/list.html", data)
}

func (h *OrderPageHandler) listData(c *gin.Context, state domain.ListState, result *domain.QueryResult) gin.H {
	return gin.H{
		"State":        state,
		"Form":         orders.FormFromFilters(state.Filters),
		"Catalog":      h.catalog,
		"Result":       result,
		"Pager":        orders.NewPager(state, result.TotalCount),
		"BaseURL":      listBaseURL,
		"Query":        orders.Canonical(state),
		"ResetURL":     orders.URL(listBaseURL, orders.FilterChange(state, domain.OrderFilters{})),
		"EmptyMessage": orders.EmptyMessage,
		"CSRFToken":    middleware.GetCSRFToken(c),
	}
}

// FilterForm re-renders the filter form after the search type changed, so
// controls locked by an order-ID search are released and cleared.
// GET /orders/filters
func (h *OrderPageHandler) FilterForm(c *gin.Context) {
	var form orders.FilterForm
	var req FilterFormRequest
	if err := c.ShouldBindQuery(&form); err != nil {
		slog.Debug("filter form: bind error", slog.Any("error", err))
		form = orders.NewFilterForm()
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		req = FilterFormRequest{}
	}

	next := form.SearchType
	if req.PrevSearchType != "" {
		form.SearchType = req.PrevSearchType
	}
	form = form.SwitchSearchType(next)

	state := domain.DefaultListState()
	if domain.ValidPageSize(req.PageSize) {
		state.PageSize = req.PageSize
	}

	c.HTML(http.StatusOK, "orders/list.html#filters", gin.H{
		"State":   state,
		"Form":    form,
		"Catalog": h.catalog,
		"BaseURL": listBaseURL,
	})
}

// DetailPage renders a single order.
// GET /orders/:id
func (h *OrderPageHandler) DetailPage(c *gin.Context) {
	order, err := h.svc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, "order detail", err)
		return
	}

	c.HTML(http.StatusOK, "orders/detail.html", gin.H{
		"Detail":    orders.BuildDetail(order, h.phoneRegion),
		"BackURL":   backURL(c),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// ProcessPage renders the BPMN diagram of an order with its visited and
// active nodes highlighted.
// GET /orders/:id/process
func (h *OrderPageHandler) ProcessPage(c *gin.Context) {
	view, err := h.svc.GetProcess(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, "order process", err)
		return
	}

	var visited, active []string
	for _, n := range view.Nodes {
		switch n.Status {
		case domain.NodeVisited:
			visited = append(visited, n.ID)
		case domain.NodeActive:
			active = append(active, n.ID)
		}
	}

	c.HTML(http.StatusOK, "orders/process.html", gin.H{
		"View":      view,
		"Summary":   orders.Summarize(*view.Order),
		"Visited":   visited,
		"Active":    active,
		"BackURL":   backURL(c),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

func (h *OrderPageHandler) renderError(c *gin.Context, what string, err error) {
	status, tmpl := pkg.ErrorPage(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), what+" unavailable",
			slog.String("id", c.Param("id")), slog.Any("error", err))
	}
	c.HTML(status, tmpl, gin.H{"Message": pkg.SafeMessage(err, "")})
}

// backURL returns the list URL carried in the "back" query parameter, so the
// detail pages link back to the filtered list they were opened from.
func backURL(c *gin.Context) string {
	v, err := url.ParseQuery(c.Query("back"))
	if err != nil {
		return listBaseURL
	}
	return orders.URL(listBaseURL, orders.Decode(v))
}
