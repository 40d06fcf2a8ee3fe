package sqlstore

import (
	"context"

	"restaurant-api/models"
	"restaurant-api/store"
)

func (s *Store) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	return translate(s.db.WithContext(ctx).Create(item).Error)
}

func (s *Store) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *Store) ListMenuItems(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, error) {
	query := s.db.WithContext(ctx).Model(&models.MenuItem{})
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Availability != nil {
		query = query.Where("availability = ?", *filter.Availability)
	}

	items := []models.MenuItem{}
	if err := query.Order("category asc, name asc").Find(&items).Error; err != nil {
		return nil, translate(err)
	}
	return items, nil
}

// UpdateMenuItem writes every editable column, including zero values such as
// availability=false.
func (s *Store) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	res := s.db.WithContext(ctx).Model(&models.MenuItem{}).Where("id = ?", item.ID).Updates(map[string]any{
		"name":         item.Name,
		"category":     item.Category,
		"description":  item.Description,
		"image":        item.Image,
		"price":        item.Price,
		"availability": item.Availability,
		"updated_at":   item.UpdatedAt,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteMenuItem(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MenuItem{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DistinctCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.WithContext(ctx).Model(&models.MenuItem{}).
		Distinct().
		Order("category asc").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, translate(err)
	}
	return categories, nil
}
