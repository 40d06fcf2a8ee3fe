package sqlstore

import (
	"context"
	"errors"

	"restaurant-api/models"
	"restaurant-api/store"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// withOrderChildren loads line items and history in insertion order.
func withOrderChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") })
}

// CreateOrder inserts the order, its lines and initial history together.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	}))
}

func (s *Store) OrderNumberExists(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := withOrderChildren(s.db.WithContext(ctx)).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *Store) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := withOrderChildren(s.db.WithContext(ctx)).
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *Store) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	query := withOrderChildren(s.db.WithContext(ctx))
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	orders := []models.Order{}
	if err := query.Order("created_at desc, order_number desc").Find(&orders).Error; err != nil {
		return nil, translate(err)
	}
	return orders, nil
}

// TransitionStatus is a compare-and-set on the status column so concurrent
// updates from the same status cannot both succeed.
func (s *Store) TransitionStatus(ctx context.Context, id string, from, to models.OrderStatus, change models.StatusChange) (*models.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, from).
			Updates(map[string]any{"status": to, "updated_at": change.CreatedAt})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return store.ErrNotFound
			}
			return store.ErrStatusConflict
		}

		change.ID = 0
		change.OrderID = id
		return tx.Create(&change).Error
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrStatusConflict) {
			return nil, err
		}
		return nil, translate(err)
	}
	return s.GetOrder(ctx, id)
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.LineItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.StatusChange{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	}))
}

// StatusTotals folds counts and totals per status in the application so the
// sums stay exact decimals on every dialect.
func (s *Store) StatusTotals(ctx context.Context) ([]models.StatusTotal, error) {
	var rows []struct {
		Status      models.OrderStatus
		TotalAmount decimal.Decimal
	}
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("status", "total_amount").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	index := map[models.OrderStatus]int{}
	totals := []models.StatusTotal{}
	for _, row := range rows {
		i, ok := index[row.Status]
		if !ok {
			i = len(totals)
			index[row.Status] = i
			totals = append(totals, models.StatusTotal{Status: row.Status, Amount: decimal.Zero})
		}
		totals[i].Count++
		totals[i].Amount = totals[i].Amount.Add(row.TotalAmount)
	}
	return totals, nil
}
