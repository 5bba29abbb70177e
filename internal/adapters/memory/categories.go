package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dkrest1/content-management-system-api/internal/domain"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

type categoryRepository struct {
	store *Store
}

func (r *categoryRepository) Create(_ context.Context, category domain.Category) (domain.Category, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.Name == category.Name {
			return domain.Category{}, fmt.Errorf("%w: category already exists", domain.ErrConflict)
		}
	}
	if category.CategoryID == uuid.Nil {
		category.CategoryID = uuid.New()
	}
	s.categories[category.CategoryID] = category
	return category, nil
}

func (r *categoryRepository) GetByID(_ context.Context, categoryID uuid.UUID) (domain.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	category, ok := r.store.categories[categoryID]
	if !ok {
		return domain.Category{}, fmt.Errorf("%w: category not found", domain.ErrNotFound)
	}
	return category, nil
}

func (r *categoryRepository) GetByName(_ context.Context, name string) (domain.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, category := range r.store.categories {
		if category.Name == name {
			return category, nil
		}
	}
	return domain.Category{}, fmt.Errorf("%w: category not found", domain.ErrNotFound)
}

func (r *categoryRepository) ListActive(_ context.Context, page domain.PageRequest) ([]domain.Category, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	active := make([]domain.Category, 0, len(r.store.categories))
	for _, category := range r.store.categories {
		if category.Active {
			active = append(active, category)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Name < active[j].Name })
	return window(active, page), len(active), nil
}

func (r *categoryRepository) Update(_ context.Context, categoryID uuid.UUID, update ports.CategoryUpdate, at time.Time) (domain.Category, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	category, ok := s.categories[categoryID]
	if !ok {
		return domain.Category{}, fmt.Errorf("%w: category not found", domain.ErrNotFound)
	}
	if update.Name != nil {
		for id, existing := range s.categories {
			if id != categoryID && existing.Name == *update.Name {
				return domain.Category{}, fmt.Errorf("%w: category already exists", domain.ErrConflict)
			}
		}
		category.Name = *update.Name
	}
	if update.Description != nil {
		category.Description = *update.Description
	}
	category.UpdatedAt = at
	s.categories[categoryID] = category
	return category, nil
}

func (r *categoryRepository) Deactivate(_ context.Context, categoryID uuid.UUID, at time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	category, ok := s.categories[categoryID]
	if !ok {
		return fmt.Errorf("%w: category not found", domain.ErrNotFound)
	}
	category.Active = false
	category.UpdatedAt = at
	s.categories[categoryID] = category
	return nil
}
