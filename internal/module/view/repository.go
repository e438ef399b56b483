package view

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/simp-lee/order360/internal/domain"
	"github.com/simp-lee/order360/internal/pkg"
)

// Columns usable by List queries.
var (
	allowedSortFields   = []string{"id", "name", "created_at", "updated_at"}
	allowedFilterFields = []string{"name"}
	searchFields        = []string{"name", "description"}
)

// savedViewRepository implements domain.SavedViewRepository using GORM.
type savedViewRepository struct {
	db *gorm.DB
}

// NewSavedViewRepository creates a new SavedViewRepository backed by db.
func NewSavedViewRepository(db *gorm.DB) domain.SavedViewRepository {
	return &savedViewRepository{db: db}
}

func (r *savedViewRepository) Create(ctx context.Context, v *domain.SavedView) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		return mapError(err)
	}
	return nil
}

func (r *savedViewRepository) GetByID(ctx context.Context, id uint) (*domain.SavedView, error) {
	var v domain.SavedView
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &v, nil
}

func (r *savedViewRepository) GetByName(ctx context.Context, name string) (*domain.SavedView, error) {
	var v domain.SavedView
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&v).Error; err != nil {
		return nil, mapError(err)
	}
	return &v, nil
}

// List returns one page of saved views matching req.
func (r *savedViewRepository) List(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.SavedView], error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&domain.SavedView{}).
		Scopes(pkg.Filter(req, allowedFilterFields), pkg.Search(req, searchFields))

	if err := base.Count(&total).Error; err != nil {
		return nil, mapError(err)
	}

	var views []domain.SavedView
	if err := base.Scopes(
		pkg.Paginate(req),
		pkg.Sort(req, allowedSortFields),
	).Find(&views).Error; err != nil {
		return nil, mapError(err)
	}

	return pkg.NewPageResult(views, total, req), nil
}

// Upsert stores v under its name, replacing the query and description of an
// existing view with the same name. On return v carries the stored row.
func (r *savedViewRepository) Upsert(ctx context.Context, v *domain.SavedView) error {
	err := pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		var existing domain.SavedView
		err := tx.Where("name = ?", v.Name).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(v).Error
		case err != nil:
			return err
		}

		existing.Query = v.Query
		existing.Description = v.Description
		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		*v = existing
		return nil
	})
	return mapError(err)
}

// Delete removes a saved view by ID.
func (r *savedViewRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.SavedView{}, id)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// mapError converts GORM errors to domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, "a view with this name already exists", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}

// isDuplicateKeyError detects unique constraint violations the driver did
// not translate to gorm.ErrDuplicatedKey (e.g. the pure-Go SQLite driver).
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
