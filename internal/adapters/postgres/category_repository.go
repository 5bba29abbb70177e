package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dkrest1/content-management-system-api/internal/domain"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

type categoryRepository struct {
	db *gorm.DB
}

func (r *categoryRepository) Create(ctx context.Context, category domain.Category) (domain.Category, error) {
	rec := categoryModel{
		CategoryID:  category.CategoryID,
		Name:        category.Name,
		Description: category.Description,
		Active:      category.Active,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Category{}, fmt.Errorf("%w: category already exists", domain.ErrConflict)
		}
		return domain.Category{}, err
	}
	return toDomainCategory(rec), nil
}

func (r *categoryRepository) GetByID(ctx context.Context, categoryID uuid.UUID) (domain.Category, error) {
	var rec categoryModel
	if err := r.db.WithContext(ctx).Where("category_id = ?", categoryID).Take(&rec).Error; err != nil {
		return domain.Category{}, notFound(err, "category")
	}
	return toDomainCategory(rec), nil
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (domain.Category, error) {
	var rec categoryModel
	if err := r.db.WithContext(ctx).Where("name = ?", name).Take(&rec).Error; err != nil {
		return domain.Category{}, notFound(err, "category")
	}
	return toDomainCategory(rec), nil
}

func (r *categoryRepository) ListActive(ctx context.Context, page domain.PageRequest) ([]domain.Category, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&categoryModel{}).Where("active").Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []categoryModel
	if err := r.db.WithContext(ctx).
		Where("active").
		Order("name ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainCategory(row))
	}
	return out, int(total), nil
}

func (r *categoryRepository) Update(ctx context.Context, categoryID uuid.UUID, update ports.CategoryUpdate, at time.Time) (domain.Category, error) {
	fields := map[string]any{"updated_at": at}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}

	var rows []categoryModel
	res := r.db.WithContext(ctx).
		Model(&rows).
		Clauses(clause.Returning{}).
		Where("category_id = ?", categoryID).
		Updates(fields)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return domain.Category{}, fmt.Errorf("%w: category already exists", domain.ErrConflict)
		}
		return domain.Category{}, res.Error
	}
	if res.RowsAffected == 0 || len(rows) == 0 {
		return domain.Category{}, notFound(gorm.ErrRecordNotFound, "category")
	}
	return toDomainCategory(rows[0]), nil
}

func (r *categoryRepository) Deactivate(ctx context.Context, categoryID uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&categoryModel{}).
		Where("category_id = ?", categoryID).
		Updates(map[string]any{
			"active":     false,
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "category")
	}
	return nil
}
