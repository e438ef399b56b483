package view

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/simp-lee/order360/internal/domain"
	"github.com/simp-lee/order360/internal/orders"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 255
)

// savedViewService implements domain.SavedViewService.
type savedViewService struct {
	repo domain.SavedViewRepository
}

// NewSavedViewService creates a new SavedViewService with the given repository.
func NewSavedViewService(repo domain.SavedViewRepository) domain.SavedViewService {
	return &savedViewService{repo: repo}
}

// SaveView stores state under name as its canonical query string. Saving
// under an existing name replaces that view.
func (s *savedViewService) SaveView(ctx context.Context, name, description string, state domain.ListState) (*domain.SavedView, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)

	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return nil, domain.NewAppError(domain.CodeValidation, "name is required", nil)
	case n > maxNameLength:
		return nil, domain.NewAppError(domain.CodeValidation, "name must be at most 100 characters", nil)
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, domain.NewAppError(domain.CodeValidation, "description must be at most 255 characters", nil)
	}

	v := &domain.SavedView{
		Name:        name,
		Description: description,
		Query:       orders.Canonical(state),
	}
	if err := s.repo.Upsert(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *savedViewService) GetView(ctx context.Context, id uint) (*domain.SavedView, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *savedViewService) ListViews(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.SavedView], error) {
	return s.repo.List(ctx, req)
}

func (s *savedViewService) DeleteView(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}
