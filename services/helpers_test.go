package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"restaurant-api/events"
	"restaurant-api/models"
	"restaurant-api/store"
	"restaurant-api/store/sqlstore"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s := sqlstore.New(db)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func addMenuItem(t *testing.T, s store.MenuStore, name string, category models.Category, price string, available bool) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{
		ID:           uuid.NewString(),
		Name:         name,
		Category:     category,
		Image:        "https://images.example.com/item.jpg",
		Price:        decimal.RequireFromString(price),
		Availability: available,
	}
	require.NoError(t, s.CreateMenuItem(context.Background(), item))
	return item
}

func countOrders(t *testing.T, s store.OrderStore) int {
	t.Helper()
	orders, err := s.ListOrders(context.Background(), models.OrderFilter{})
	require.NoError(t, err)
	return len(orders)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// racingOrderStore wraps a real store and makes the first N inserts fail as
// if another request took the number between check and insert.
type racingOrderStore struct {
	store.OrderStore
	collisions int
	tried      []string
}

func (r *racingOrderStore) CreateOrder(ctx context.Context, order *models.Order) error {
	r.tried = append(r.tried, order.OrderNumber)
	if r.collisions > 0 {
		r.collisions--
		return fmt.Errorf("%w: order_number", store.ErrDuplicateKey)
	}
	return r.OrderStore.CreateOrder(ctx, order)
}

// takenNumbersStore reports every order number as already used.
type takenNumbersStore struct {
	store.OrderStore
}

func (takenNumbersStore) OrderNumberExists(context.Context, string) (bool, error) {
	return true, nil
}

// conflictingOrderStore loses every status compare-and-set.
type conflictingOrderStore struct {
	store.OrderStore
}

func (conflictingOrderStore) TransitionStatus(context.Context, string, models.OrderStatus, models.OrderStatus, models.StatusChange) (*models.Order, error) {
	return nil, store.ErrStatusConflict
}

// brokenOrderStore fails every read with a driver error.
type brokenOrderStore struct {
	store.OrderStore
}

func (brokenOrderStore) GetOrder(context.Context, string) (*models.Order, error) {
	return nil, errors.New("database is locked")
}

func (brokenOrderStore) StatusTotals(context.Context) ([]models.StatusTotal, error) {
	return nil, errors.New("database is locked")
}
