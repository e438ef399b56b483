package domain

import "slices"

// SearchType selects which order attribute the free-text search applies to.
type SearchType string

const (
	SearchOrderID           SearchType = "orderId"
	SearchPartyID           SearchType = "partyId"
	SearchProfileID         SearchType = "profileId"
	SearchOfferingID        SearchType = "offeringId"
	SearchSalesOrganization SearchType = "salesOrganization"
	SearchGroup             SearchType = "group"
)

// SearchTypes lists every supported search type in form order.
var SearchTypes = []SearchType{
	SearchOrderID,
	SearchPartyID,
	SearchProfileID,
	SearchOfferingID,
	SearchSalesOrganization,
	SearchGroup,
}

// Valid reports whether t is one of the supported search types.
func (t SearchType) Valid() bool {
	return slices.Contains(SearchTypes, t)
}

// DateLayout is the wire and URL format of filter dates (yyyy-MM-dd).
const DateLayout = "2006-01-02"

// OrderFilters are the criteria applied to an order list query.
// An empty field means unfiltered.
type OrderFilters struct {
	SearchType      SearchType `json:"searchType,omitempty"`
	Search          string     `json:"search,omitempty"`
	Channel         string     `json:"channel,omitempty"`
	BusinessProcess string     `json:"businessProcess,omitempty"`
	State           string     `json:"state,omitempty"`
	DateFrom        string     `json:"dateFrom,omitempty"`
	DateTo          string     `json:"dateTo,omitempty"`
}

// IsZero reports whether no criterion is set.
func (f OrderFilters) IsZero() bool {
	return f == OrderFilters{}
}

// OrderIDExclusive reports whether an order-ID search is active, in which
// case every other criterion is ignored.
func (f OrderFilters) OrderIDExclusive() bool {
	return f.SearchType == SearchOrderID && f.Search != ""
}

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// PageSizes are the page sizes an operator can choose.
var PageSizes = []int{10, 20, 50, 100}

// ValidPageSize reports whether n is a selectable page size.
func ValidPageSize(n int) bool {
	return slices.Contains(PageSizes, n)
}

// ListState is the complete, shareable state of the order list view.
type ListState struct {
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
	Filters  OrderFilters `json:"filters"`
}

// DefaultListState returns the state of a freshly opened order list.
func DefaultListState() ListState {
	return ListState{Page: DefaultPage, PageSize: DefaultPageSize}
}
