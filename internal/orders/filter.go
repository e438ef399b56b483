package orders

import (
	"strings"
	"time"

	"github.com/simp-lee/order360/internal/domain"
)

// FilterForm is the raw state of the filter form as submitted by the browser.
// Selects submit AllValue when unfiltered; dates are yyyy-MM-dd.
type FilterForm struct {
	SearchType      string `form:"searchType"`
	Search          string `form:"search"`
	Channel         string `form:"channel"`
	BusinessProcess string `form:"businessProcess"`
	State           string `form:"state"`
	DateFrom        string `form:"dateFrom"`
	DateTo          string `form:"dateTo"`
}

// NewFilterForm returns the form as it looks after a reset.
func NewFilterForm() FilterForm {
	return FilterForm{
		SearchType:      string(domain.SearchOrderID),
		Channel:         AllValue,
		BusinessProcess: AllValue,
		State:           AllValue,
	}
}

// FormFromFilters fills the form controls from already applied filters.
func FormFromFilters(f domain.OrderFilters) FilterForm {
	form := NewFilterForm()
	if f.SearchType != "" {
		form.SearchType = string(f.SearchType)
	}
	form.Search = f.Search
	form.Channel = orAll(f.Channel)
	form.BusinessProcess = orAll(f.BusinessProcess)
	form.State = orAll(f.State)
	form.DateFrom = f.DateFrom
	form.DateTo = f.DateTo
	return form
}

// Locked reports whether the non-search controls are disabled because an
// order-ID search is being typed.
func (f FilterForm) Locked() bool {
	return f.SearchType == string(domain.SearchOrderID) && strings.TrimSpace(f.Search) != ""
}

// Reset clears every control back to its initial value. The caller applies
// the resulting empty filters.
func (f FilterForm) Reset() FilterForm {
	return NewFilterForm()
}

// SwitchSearchType changes the search type. Leaving orderId while the other
// controls were locked clears them, since their values were never applicable.
func (f FilterForm) SwitchSearchType(to string) FilterForm {
	wasLocked := f.Locked()
	f.SearchType = to
	if to != string(domain.SearchOrderID) && wasLocked {
		f.Channel = AllValue
		f.BusinessProcess = AllValue
		f.State = AllValue
		f.DateFrom = ""
		f.DateTo = ""
	}
	return f
}

// Normalize converts the submitted form into the filters to apply.
func (f FilterForm) Normalize() domain.OrderFilters {
	return NormalizeFilters(domain.OrderFilters{
		SearchType:      domain.SearchType(strings.TrimSpace(f.SearchType)),
		Search:          f.Search,
		Channel:         f.Channel,
		BusinessProcess: f.BusinessProcess,
		State:           f.State,
		DateFrom:        f.DateFrom,
		DateTo:          f.DateTo,
	})
}

// NormalizeFilters canonicalizes filters from any source:
//   - values are trimmed and AllValue means unfiltered
//   - a search type without search text is dropped; search text without a
//     valid search type searches by order ID
//   - unparseable dates are dropped and a reversed range is swapped
//   - an order-ID search clears every other criterion
func NormalizeFilters(f domain.OrderFilters) domain.OrderFilters {
	out := domain.OrderFilters{
		SearchType:      domain.SearchType(strings.TrimSpace(string(f.SearchType))),
		Search:          strings.TrimSpace(f.Search),
		Channel:         selectValue(f.Channel),
		BusinessProcess: selectValue(f.BusinessProcess),
		State:           selectValue(f.State),
		DateFrom:        dateValue(f.DateFrom),
		DateTo:          dateValue(f.DateTo),
	}

	switch {
	case out.Search == "":
		out.SearchType = ""
	case !out.SearchType.Valid():
		out.SearchType = domain.SearchOrderID
	}

	if out.DateFrom != "" && out.DateTo != "" && out.DateFrom > out.DateTo {
		out.DateFrom, out.DateTo = out.DateTo, out.DateFrom
	}

	if out.OrderIDExclusive() {
		return domain.OrderFilters{SearchType: out.SearchType, Search: out.Search}
	}
	return out
}

func selectValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, AllValue) {
		return ""
	}
	return v
}

// dateValue returns v if it is a real calendar date in DateLayout, else "".
func dateValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if _, err := time.Parse(domain.DateLayout, v); err != nil {
		return ""
	}
	return v
}

func orAll(v string) string {
	if v == "" {
		return AllValue
	}
	return v
}
