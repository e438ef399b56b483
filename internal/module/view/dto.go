package view

import (
	"net/url"
	"strings"

	"github.com/simp-lee/order360/internal/domain"
	"github.com/simp-lee/order360/internal/orders"
)

// SaveViewRequest represents the input for saving the current list state.
// Query is the list URL query string, with or without a leading "?".
type SaveViewRequest struct {
	Name        string `json:"name" form:"name" binding:"required,max=100"`
	Description string `json:"description" form:"description" binding:"max=255"`
	Query       string `json:"query" form:"query" binding:"max=2048"`
}

// State decodes the request query into a list state. Malformed parts fall
// back to defaults the same way the list page does.
func (r SaveViewRequest) State() domain.ListState {
	v, err := url.ParseQuery(strings.TrimPrefix(strings.TrimSpace(r.Query), "?"))
	if err != nil {
		return domain.DefaultListState()
	}
	return orders.Decode(v)
}

// ViewResponse is a saved view plus the list URL that opens it.
type ViewResponse struct {
	domain.SavedView
	URL string `json:"url"`
}

func newViewResponse(v domain.SavedView) ViewResponse {
	return ViewResponse{SavedView: v, URL: listURL(v)}
}

// listURL is the order list URL a saved view opens.
func listURL(v domain.SavedView) string {
	if v.Query == "" {
		return "/orders"
	}
	return "/orders?" + v.Query
}
