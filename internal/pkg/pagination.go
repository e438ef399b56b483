package pkg

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/order360/internal/domain"
)

// Query parameters understood by ParsePageRequest. Every other non-empty
// parameter becomes an exact-match filter candidate.
const (
	ParamPage     = "page"
	ParamPageSize = "pageSize"
	ParamSort     = "sort"
	ParamSearch   = "q"
)

const (
	maxPageSize = 100
	defaultSort = "updated_at:desc"
)

var columnName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ParsePageRequest reads paging, sorting, search and filter parameters from
// the request query. Out-of-range values fall back to defaults.
func ParsePageRequest(c *gin.Context) domain.PageRequest {
	q := c.Request.URL.Query()

	req := domain.PageRequest{
		Page:     domain.DefaultPage,
		PageSize: domain.DefaultPageSize,
		Sort:     defaultSort,
		Search:   strings.TrimSpace(q.Get(ParamSearch)),
		Filter:   map[string]string{},
	}
	if n, err := strconv.Atoi(q.Get(ParamPage)); err == nil && n > 0 {
		req.Page = n
	}
	if n, err := strconv.Atoi(q.Get(ParamPageSize)); err == nil && n > 0 {
		req.PageSize = min(n, maxPageSize)
	}
	if s := q.Get(ParamSort); s != "" {
		req.Sort = s
	}

	for key := range q {
		switch key {
		case ParamPage, ParamPageSize, ParamSort, ParamSearch:
			continue
		}
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			req.Filter[key] = v
		}
	}
	return req
}

// Paginate limits a query to the requested page.
func Paginate(req domain.PageRequest) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		page := max(req.Page, 1)
		return db.Offset((page - 1) * req.PageSize).Limit(req.PageSize)
	}
}

// Sort orders a query by req.Sort ("column:asc" or "column:desc"). Columns
// outside allowed are ignored.
func Sort(req domain.PageRequest, allowed []string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		field, dir, ok := strings.Cut(req.Sort, ":")
		if !ok {
			return db
		}
		field = strings.TrimSpace(field)
		dir = strings.ToLower(strings.TrimSpace(dir))
		if dir != "asc" && dir != "desc" {
			return db
		}
		if !allowedColumn(field, allowed) {
			return db
		}
		return db.Order(field + " " + dir)
	}
}

// Filter adds an equality condition for every filter key in allowed.
func Filter(req domain.PageRequest, allowed []string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		keys := make([]string, 0, len(req.Filter))
		for k := range req.Filter {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if allowedColumn(k, allowed) {
				db = db.Where(k+" = ?", req.Filter[k])
			}
		}
		return db
	}
}

// Search matches req.Search case-insensitively as a substring of any of
// fields. Wildcards in the search text match literally.
func Search(req domain.PageRequest, fields []string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if req.Search == "" {
			return db
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(req.Search)) + "%"
		var conds []string
		var args []any
		for _, f := range fields {
			if !columnName.MatchString(f) {
				continue
			}
			conds = append(conds, "LOWER("+f+`) LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		}
		if len(conds) == 0 {
			return db
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}

// NewPageResult wraps one page of items with its paging metadata.
func NewPageResult[T any](items []T, total int64, req domain.PageRequest) *domain.PageResult[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if req.PageSize > 0 {
		pages = int((total + int64(req.PageSize) - 1) / int64(req.PageSize))
	}
	return &domain.PageResult[T]{
		Items:      items,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: pages,
	}
}

func allowedColumn(name string, allowed []string) bool {
	return columnName.MatchString(name) && slices.Contains(allowed, name)
}
