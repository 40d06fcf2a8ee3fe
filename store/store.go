// Package store defines the persistence contracts the services depend on.
// sqlstore implements them over gorm, mongostore over MongoDB.
package store

import (
	"context"
	"errors"

	"restaurant-api/models"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrStatusConflict means the order was no longer in the expected status.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

type MenuStore interface {
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error)
	// ListMenuItems returns items ordered by category then name.
	ListMenuItems(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id string) error
	DistinctCategories(ctx context.Context) ([]models.Category, error)
}

type OrderStore interface {
	// CreateOrder persists the order with its lines and history in one write.
	// A taken order number yields ErrDuplicateKey.
	CreateOrder(ctx context.Context, order *models.Order) error
	OrderNumberExists(ctx context.Context, orderNumber string) (bool, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	// ListOrders returns orders newest first.
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	// TransitionStatus moves the order from one status to another only if it
	// is still in from, appending change to its history. It returns
	// ErrStatusConflict when the order has moved on and ErrNotFound when it
	// does not exist.
	TransitionStatus(ctx context.Context, id string, from, to models.OrderStatus, change models.StatusChange) (*models.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	StatusTotals(ctx context.Context) ([]models.StatusTotal, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Store is the full persistence surface of the API.
type Store interface {
	MenuStore
	OrderStore
	UserStore
	Ping(ctx context.Context) error
	Close() error
}
