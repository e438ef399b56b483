package domain

import "context"

// SavedView is a named order list state. Query holds the canonical URL
// query string of the state, so opening a view is a plain redirect.
type SavedView struct {
	BaseModel
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Query       string `gorm:"size:2048;not null" json:"query"`
	Description string `gorm:"size:255" json:"description"`
}

// SavedViewRepository defines the data access interface for saved views.
type SavedViewRepository interface {
	Create(ctx context.Context, view *SavedView) error
	GetByID(ctx context.Context, id uint) (*SavedView, error)
	GetByName(ctx context.Context, name string) (*SavedView, error)
	List(ctx context.Context, req PageRequest) (*PageResult[SavedView], error)
	Upsert(ctx context.Context, view *SavedView) error
	Delete(ctx context.Context, id uint) error
}

// SavedViewService defines the business logic interface for saved views.
type SavedViewService interface {
	SaveView(ctx context.Context, name, description string, state ListState) (*SavedView, error)
	GetView(ctx context.Context, id uint) (*SavedView, error)
	ListViews(ctx context.Context, req PageRequest) (*PageResult[SavedView], error)
	DeleteView(ctx context.Context, id uint) error
}
