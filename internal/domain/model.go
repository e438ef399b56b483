package domain

import "time"

// BaseModel carries the id and timestamps of stored records. It omits
// gorm.Model's DeletedAt, so deletes are hard deletes.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PageRequest selects one page of stored records. Search is free text,
// Filter holds exact-match column values.
type PageRequest struct {
	Page     int
	PageSize int
	Sort     string
	Search   string
	Filter   map[string]string
}

// PageResult is one page of items plus the metadata needed to render pagination.
type PageResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}
