package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

// CategoryService maintains the per-user category catalogue backing the
// dashboard selects.
type CategoryService struct {
	store ledger.Store
}

func NewCategoryService(store ledger.Store) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) Create(ctx context.Context, userID string, c core.Category) (core.Category, error) {
	c.ID = uuid.NewString()
	c.UserID = userID
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, core.Invalid(err.Error())
	}
	existing, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return core.Category{}, fmt.Errorf("list categories: %w", err)
	}
	for _, e := range existing {
		if strings.EqualFold(e.Name, c.Name) && e.Kind == c.Kind {
			return core.Category{}, core.Conflict("category already exists")
		}
	}
	if err := s.store.SaveCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	return c, nil
}

func (s *CategoryService) List(ctx context.Context, userID string) ([]core.Category, error) {
	items, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}

func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteCategory(ctx, userID, id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return core.NotFound("category not found")
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
