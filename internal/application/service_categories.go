package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dkrest1/content-management-system-api/internal/domain"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

func (s *Service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (CategoryView, error) {
	req = req.normalized()
	if err := validateRequest(req); err != nil {
		return CategoryView{}, err
	}
	name, description := req.Name, req.Description
	now := s.nowFn()
	category, err := s.categories.Create(ctx, domain.Category{
		CategoryID:  uuid.New(),
		Name:        name,
		Description: description,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return CategoryView{}, err
	}
	return NewCategoryView(category), nil
}

func (s *Service) UpdateCategory(ctx context.Context, categoryID uuid.UUID, req UpdateCategoryRequest) (CategoryView, error) {
	req = req.normalized()
	if err := validateRequest(req); err != nil {
		return CategoryView{}, err
	}
	update := ports.CategoryUpdate{Name: req.Name, Description: req.Description}
	if update.Name == nil && update.Description == nil {
		return CategoryView{}, fmt.Errorf("%w: nothing to update", domain.ErrInvalidInput)
	}
	category, err := s.categories.Update(ctx, categoryID, update, s.nowFn())
	if err != nil {
		return CategoryView{}, err
	}
	return NewCategoryView(category), nil
}

// GetCategory hides deactivated categories.
func (s *Service) GetCategory(ctx context.Context, categoryID uuid.UUID) (CategoryView, error) {
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		return CategoryView{}, err
	}
	if !category.Active {
		return CategoryView{}, fmt.Errorf("%w: category not found", domain.ErrNotFound)
	}
	return NewCategoryView(category), nil
}

func (s *Service) ListCategories(ctx context.Context, page domain.PageRequest) (domain.Page[CategoryView], error) {
	categories, total, err := s.categories.ListActive(ctx, page)
	if err != nil {
		return domain.Page[CategoryView]{}, err
	}
	return domain.MapPage(domain.NewPage(categories, total, page), NewCategoryView), nil
}

// DeleteCategory deactivates; posts keep pointing at it.
func (s *Service) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	return s.categories.Deactivate(ctx, categoryID, s.nowFn())
}

// resolveCategory finds a category by name, creating it on first use.
// name is already normalized and validated.
func (s *Service) resolveCategory(ctx context.Context, name string) (domain.Category, error) {
	category, err := s.categories.GetByName(ctx, name)
	if err == nil {
		if !category.Active {
			return domain.Category{}, fmt.Errorf("%w: category %q is not active", domain.ErrInvalidInput, name)
		}
		return category, nil
	}
	if !isNotFound(err) {
		return domain.Category{}, err
	}

	now := s.nowFn()
	category, err = s.categories.Create(ctx, domain.Category{
		CategoryID:  uuid.New(),
		Name:        name,
		Description: name,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if errors.Is(err, domain.ErrConflict) {
		// lost a create race with another request
		return s.categories.GetByName(ctx, name)
	}
	return category, err
}
