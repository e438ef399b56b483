package orders

import "github.com/simp-lee/order360/internal/domain"

// OrderListResponse is the JSON API shape of one page of orders. Query is the
// canonical query string of the applied state, usable as a shareable link.
type OrderListResponse struct {
	domain.PageResult[domain.OrderSummary]
	Query   string              `json:"query"`
	Filters domain.OrderFilters `json:"filters"`
}

// FilterFormRequest is the filter form plus the search type that was selected
// before the change that triggered the request.
type FilterFormRequest struct {
	PrevSearchType string `form:"prevSearchType"`
	PageSize       int    `form:"pageSize"`
}
