package orders

import (
	"sort"

	"github.com/simp-lee/order360/internal/domain"
)

// Pager derives pagination controls from the list state and the total
// number of matching orders.
type Pager struct {
	State      domain.ListState
	TotalCount int64
}

// PageLink is one entry of the page-number strip. Ellipsis entries stand for
// a run of skipped pages and carry no page number.
type PageLink struct {
	Page     int
	Current  bool
	Ellipsis bool
}

// NewPager returns a pager for the normalized state.
func NewPager(state domain.ListState, total int64) Pager {
	if total < 0 {
		total = 0
	}
	return Pager{State: NormalizeState(state), TotalCount: total}
}

// TotalPages is ceil(TotalCount / PageSize).
func (p Pager) TotalPages() int {
	size := int64(p.State.PageSize)
	if size <= 0 {
		return 0
	}
	return int((p.TotalCount + size - 1) / size)
}

func (p Pager) HasPrev() bool { return p.State.Page > 1 }

func (p Pager) HasNext() bool { return p.State.Page < p.TotalPages() }

// Visible reports whether pagination controls are shown at all.
func (p Pager) Visible() bool { return p.TotalCount > 0 }

// PageChange returns the state for page. It reports false, leaving the
// state untouched, when page is out of range or already current.
func (p Pager) PageChange(page int) (domain.ListState, bool) {
	if page < 1 || page > p.TotalPages() || page == p.State.Page {
		return p.State, false
	}
	next := p.State
	next.Page = page
	return next, true
}

// PageSizeChange returns the state for a new page size, back on page 1.
// Sizes outside domain.PageSizes are rejected.
func (p Pager) PageSizeChange(size int) (domain.ListState, bool) {
	if !domain.ValidPageSize(size) {
		return p.State, false
	}
	next := p.State
	next.PageSize = size
	next.Page = domain.DefaultPage
	return next, true
}

// FilterChange returns the state with new filters, back on page 1.
func FilterChange(s domain.ListState, f domain.OrderFilters) domain.ListState {
	s.Filters = NormalizeFilters(f)
	s.Page = domain.DefaultPage
	return NormalizeState(s)
}

// Links returns the first page, the last page and the pages adjacent to the
// current one, with a single ellipsis for every gap between them.
func (p Pager) Links() []PageLink {
	total := p.TotalPages()
	if total == 0 {
		return nil
	}
	cur := min(max(p.State.Page, 1), total)

	set := map[int]struct{}{1: {}, total: {}}
	for _, n := range []int{cur - 1, cur, cur + 1} {
		if n >= 1 && n <= total {
			set[n] = struct{}{}
		}
	}
	pages := make([]int, 0, len(set))
	for n := range set {
		pages = append(pages, n)
	}
	sort.Ints(pages)

	links := make([]PageLink, 0, len(pages)*2)
	prev := 0
	for _, n := range pages {
		if prev != 0 && n-prev > 1 {
			links = append(links, PageLink{Ellipsis: true})
		}
		links = append(links, PageLink{Page: n, Current: n == cur})
		prev = n
	}
	return links
}

// PageURL is the list URL for page n of the current state.
func (p Pager) PageURL(base string, n int) string {
	s := p.State
	s.Page = n
	return URL(base, s)
}

// First and Last are the 1-based positions of the rows on this page.
func (p Pager) First() int64 {
	if p.TotalCount == 0 {
		return 0
	}
	return int64(p.State.Page-1)*int64(p.State.PageSize) + 1
}

func (p Pager) Last() int64 {
	return min(int64(p.State.Page)*int64(p.State.PageSize), p.TotalCount)
}
