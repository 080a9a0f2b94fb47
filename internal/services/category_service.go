package services

import (
	"context"
	"fmt"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/ports"
)

type CategoryService struct {
	store ports.CategoryStore
}

func NewCategoryService(store ports.CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CategoryService) Create(ctx context.Context, name string, kind core.Kind) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.NewValidationError("name", "must not be empty")
	}
	if !kind.Valid() {
		return core.Category{}, core.ErrInvalidKind
	}
	existing, err := s.store.ListCategories(ctx)
	if err != nil {
		return core.Category{}, fmt.Errorf("list categories: %w", err)
	}
	for _, c := range existing {
		if c.Kind == kind && strings.EqualFold(c.Name, name) {
			return core.Category{}, core.NewValidationError("name", "already exists")
		}
	}

	c, err := s.store.CreateCategory(ctx, core.Category{Name: name, Kind: kind})
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// checkCategory fails with core.ErrUnknownCategory when id is set but names
// no stored category.
func checkCategory(ctx context.Context, store ports.CategoryStore, id string) error {
	if id == "" {
		return nil
	}
	categories, err := store.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	for _, c := range categories {
		if c.ID == id {
			return nil
		}
	}
	return core.ErrUnknownCategory
}
