package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"restaurant-api/apperror"
	"restaurant-api/logger"
	"restaurant-api/models"
	"restaurant-api/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrMenuItemNotFound  = apperror.NotFound("Menu item not found")
	ErrMenuFieldsMissing = apperror.Validation("Name, category, image, and price are required")
	ErrNegativePrice     = apperror.Validation("Price must not be negative")
	ErrPricePrecision    = apperror.Validation("Price must have at most 2 decimal places")
	ErrPriceTooHigh      = apperror.Validation("Price must not exceed %s", maxMenuPrice.StringFixed(2))
)

var maxMenuPrice = decimal.RequireFromString("99999.99")

// checkPrice keeps prices storable in a decimal(12,2) column without rounding.
func checkPrice(price decimal.Decimal) error {
	switch {
	case price.IsNegative():
		return ErrNegativePrice
	case !price.Equal(price.Round(2)):
		return ErrPricePrecision
	case price.GreaterThan(maxMenuPrice):
		return ErrPriceTooHigh
	}
	return nil
}

// MenuInput carries create and partial-update fields. Nil means "not sent".
type MenuInput struct {
	Name         *string
	Category     *models.Category
	Description  *string
	Image        *string
	Price        *decimal.Decimal
	Availability *bool
}

type MenuService struct {
	menu store.MenuStore
	log  *slog.Logger
	now  func() time.Time
}

func NewMenuService(menu store.MenuStore, log *slog.Logger) *MenuService {
	if log == nil {
		log = logger.Discard()
	}
	return &MenuService{menu: menu, log: log, now: time.Now}
}

func invalidCategory(c models.Category) error {
	names := make([]string, len(models.Categories))
	for i, known := range models.Categories {
		names[i] = string(known)
	}
	return apperror.Validation("Invalid category %q. Must be one of: %s", c, strings.Join(names, ", "))
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func (s *MenuService) Create(ctx context.Context, in MenuInput) (*models.MenuItem, error) {
	name, image := trimmed(in.Name), trimmed(in.Image)
	if name == "" || image == "" || in.Category == nil || in.Price == nil {
		return nil, ErrMenuFieldsMissing
	}
	if !in.Category.Valid() {
		return nil, invalidCategory(*in.Category)
	}
	if err := checkPrice(*in.Price); err != nil {
		return nil, err
	}

	available := true
	if in.Availability != nil {
		available = *in.Availability
	}

	now := s.now()
	item := &models.MenuItem{
		ID:           uuid.NewString(),
		Name:         name,
		Category:     *in.Category,
		Description:  trimmed(in.Description),
		Image:        image,
		Price:        *in.Price,
		Availability: available,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.menu.CreateMenuItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create menu item: %w", err)
	}
	s.log.Info("menu item created", slog.String("menu_item_id", item.ID), slog.String("name", item.Name))
	return item, nil
}

func (s *MenuService) Get(ctx context.Context, id string) (*models.MenuItem, error) {
	item, err := s.menu.GetMenuItem(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrMenuItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get menu item %s: %w", id, err)
	}
	return item, nil
}

// Update applies only the fields present in in.
func (s *MenuService) Update(ctx context.Context, id string, in MenuInput) (*models.MenuItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if trimmed(in.Name) == "" {
			return nil, apperror.Validation("Menu item name is required")
		}
		item.Name = trimmed(in.Name)
	}
	if in.Category != nil {
		if !in.Category.Valid() {
			return nil, invalidCategory(*in.Category)
		}
		item.Category = *in.Category
	}
	if in.Description != nil {
		item.Description = trimmed(in.Description)
	}
	if in.Image != nil {
		if trimmed(in.Image) == "" {
			return nil, apperror.Validation("Image URL is required")
		}
		item.Image = trimmed(in.Image)
	}
	if in.Price != nil {
		if err := checkPrice(*in.Price); err != nil {
			return nil, err
		}
		item.Price = *in.Price
	}
	if in.Availability != nil {
		item.Availability = *in.Availability
	}
	item.UpdatedAt = s.now()

	err = s.menu.UpdateMenuItem(ctx, item)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrMenuItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update menu item %s: %w", id, err)
	}
	s.log.Info("menu item updated", slog.String("menu_item_id", item.ID))
	return item, nil
}

// Delete removes a catalog item. Existing orders keep their snapshots.
func (s *MenuService) Delete(ctx context.Context, id string) error {
	err := s.menu.DeleteMenuItem(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrMenuItemNotFound
	}
	if err != nil {
		return fmt.Errorf("delete menu item %s: %w", id, err)
	}
	s.log.Info("menu item deleted", slog.String("menu_item_id", id))
	return nil
}

func (s *MenuService) List(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, error) {
	if filter.Category != nil && !filter.Category.Valid() {
		return nil, invalidCategory(*filter.Category)
	}
	items, err := s.menu.ListMenuItems(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	return items, nil
}

// Categories lists the categories that currently have at least one item.
func (s *MenuService) Categories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.menu.DistinctCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}
