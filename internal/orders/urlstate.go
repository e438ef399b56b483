package orders

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/simp-lee/order360/internal/domain"
)

// Query parameter names shared by the browser URL and the backend request.
const (
	ParamPage            = "page"
	ParamPageSize        = "pageSize"
	ParamSearchType      = "searchType"
	ParamSearch          = "search"
	ParamChannel         = "channel"
	ParamBusinessProcess = "businessProcess"
	ParamState           = "state"
	ParamDateFrom        = "dateFrom"
	ParamDateTo          = "dateTo"
)

// NormalizeState clamps page and page size and normalizes the filters.
func NormalizeState(s domain.ListState) domain.ListState {
	if s.Page < 1 {
		s.Page = domain.DefaultPage
	}
	if !domain.ValidPageSize(s.PageSize) {
		s.PageSize = domain.DefaultPageSize
	}
	s.Filters = NormalizeFilters(s.Filters)
	return s
}

// Encode writes the state as URL query values. Defaults and empty filters
// are omitted so the default view has an empty query string.
func Encode(s domain.ListState) url.Values {
	s = NormalizeState(s)
	v := url.Values{}
	if s.Page != domain.DefaultPage {
		v.Set(ParamPage, strconv.Itoa(s.Page))
	}
	if s.PageSize != domain.DefaultPageSize {
		v.Set(ParamPageSize, strconv.Itoa(s.PageSize))
	}
	setFilterParams(v, s.Filters)
	return v
}

// Decode reads the state from URL query values. Absent or invalid values
// fall back to defaults, so Decode(Encode(s)) == NormalizeState(s).
func Decode(v url.Values) domain.ListState {
	page, err := strconv.Atoi(strings.TrimSpace(v.Get(ParamPage)))
	if err != nil {
		page = domain.DefaultPage
	}
	size, err := strconv.Atoi(strings.TrimSpace(v.Get(ParamPageSize)))
	if err != nil {
		size = domain.DefaultPageSize
	}
	return NormalizeState(domain.ListState{
		Page:     page,
		PageSize: size,
		Filters: domain.OrderFilters{
			SearchType:      domain.SearchType(v.Get(ParamSearchType)),
			Search:          v.Get(ParamSearch),
			Channel:         v.Get(ParamChannel),
			BusinessProcess: v.Get(ParamBusinessProcess),
			State:           v.Get(ParamState),
			DateFrom:        v.Get(ParamDateFrom),
			DateTo:          v.Get(ParamDateTo),
		},
	})
}

// Canonical returns the encoded query string with sorted keys. Equal states
// always yield equal strings.
func Canonical(s domain.ListState) string {
	return Encode(s).Encode()
}

// URL returns the list page URL for the state.
func URL(base string, s domain.ListState) string {
	q := Canonical(s)
	if q == "" {
		return base
	}
	return base + "?" + q
}

// BackendParams maps the state to the backend list query. Unlike Encode,
// page and pageSize are always sent.
func BackendParams(s domain.ListState) url.Values {
	s = NormalizeState(s)
	v := url.Values{}
	v.Set(ParamPage, strconv.Itoa(s.Page))
	v.Set(ParamPageSize, strconv.Itoa(s.PageSize))
	setFilterParams(v, s.Filters)
	return v
}

func setFilterParams(v url.Values, f domain.OrderFilters) {
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set(ParamSearchType, string(f.SearchType))
	set(ParamSearch, f.Search)
	set(ParamChannel, f.Channel)
	set(ParamBusinessProcess, f.BusinessProcess)
	set(ParamState, f.State)
	set(ParamDateFrom, f.DateFrom)
	set(ParamDateTo, f.DateTo)
}
