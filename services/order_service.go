package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"restaurant-api/apperror"
	"restaurant-api/events"
	"restaurant-api/logger"
	"restaurant-api/metrics"
	"restaurant-api/models"
	"restaurant-api/statemachine"
	"restaurant-api/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxOrderNumberAttempts bounds the search for a free order number when
// several orders are created within the same millisecond.
const maxOrderNumberAttempts = 10

// maxLineQuantity caps a single cart line.
const maxLineQuantity = 100

// maxOrderTotal is the largest amount a decimal(12,2) column holds.
var maxOrderTotal = decimal.RequireFromString("9999999999.99")

var (
	ErrEmptyOrder          = apperror.Validation("Order must contain at least one item")
	ErrMissingCustomerInfo = apperror.Validation("Customer name and phone number are required")
	ErrStatusRequired      = apperror.Validation("Status is required")
	ErrInvalidStatus       = apperror.Validation("Invalid status")
	ErrOrderNotFound       = apperror.NotFound("Order not found")
	ErrOrderTotalTooHigh   = apperror.Validation("Order total exceeds %s", maxOrderTotal.StringFixed(2))
)

// LineRequest is one cart line as submitted by the customer.
type LineRequest struct {
	MenuItemID string
	Quantity   int
}

type CreateOrderInput struct {
	Items        []LineRequest
	CustomerName string
	ContactInfo  models.ContactInfo
	Notes        string
}

type StatusUpdate struct {
	Status    models.OrderStatus
	Note      string
	ChangedBy string
}

type OrderService struct {
	orders    store.OrderStore
	menu      store.MenuStore
	strict    bool
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time
}

type OrderOption func(*OrderService)

// WithStrictTransitions toggles enforcement of the status state machine.
// When off any known status may follow any other.
func WithStrictTransitions(strict bool) OrderOption {
	return func(s *OrderService) { s.strict = strict }
}

func WithPublisher(p events.Publisher) OrderOption {
	return func(s *OrderService) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) OrderOption {
	return func(s *OrderService) { s.metrics = m }
}

func WithLogger(log *slog.Logger) OrderOption {
	return func(s *OrderService) { s.log = log }
}

func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

func NewOrderService(orders store.OrderStore, menu store.MenuStore, opts ...OrderOption) *OrderService {
	s := &OrderService{
		orders:    orders,
		menu:      menu,
		strict:    true,
		publisher: events.Nop{},
		log:       logger.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OrderNumber formats the human-readable number for a creation instant.
// attempt shifts the millisecond when the first choice is taken.
func OrderNumber(at time.Time, attempt int) string {
	return fmt.Sprintf("ORD-%d", at.UnixMilli()+int64(attempt))
}

// CreateOrder validates the cart against the catalog, snapshots every line,
// computes the total and persists the order as Pending. Nothing is written
// unless every line is valid.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		s.reject("empty_order")
		return nil, ErrEmptyOrder
	}

	customerName := strings.TrimSpace(in.CustomerName)
	phone := strings.TrimSpace(in.ContactInfo.Phone)
	if customerName == "" || phone == "" {
		s.reject("missing_customer_info")
		return nil, ErrMissingCustomerInfo
	}

	lines := make([]models.LineItem, 0, len(in.Items))
	total := decimal.Zero
	for _, req := range in.Items {
		line, err := s.resolveLine(ctx, req)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
		total = total.Add(line.Subtotal())
	}
	if total.GreaterThan(maxOrderTotal) {
		s.reject("total_too_high")
		return nil, ErrOrderTotalTooHigh
	}

	now := s.now()
	order := &models.Order{
		ID:           uuid.NewString(),
		Items:        lines,
		CustomerName: customerName,
		ContactInfo: models.ContactInfo{
			Phone: phone,
			Email: strings.ToLower(strings.TrimSpace(in.ContactInfo.Email)),
		},
		TotalAmount: total,
		Status:      models.StatusPending,
		Notes:       strings.TrimSpace(in.Notes),
		StatusHistory: []models.StatusChange{{
			To:        models.StatusPending,
			ChangedBy: "customer",
			Note:      "Order placed",
			CreatedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.persistWithNumber(ctx, order, now); err != nil {
		return nil, err
	}

	s.metrics.OrderCreated(order.TotalAmount)
	s.log.Info("order created",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.String("total", order.TotalAmount.StringFixed(2)),
		slog.Int("lines", len(order.Items)),
	)
	s.publish(ctx, events.NewOrderEvent(events.OrderCreated, order, "", "customer", now))
	return order, nil
}

func (s *OrderService) resolveLine(ctx context.Context, req LineRequest) (models.LineItem, error) {
	if req.Quantity < 1 {
		s.reject("invalid_quantity")
		return models.LineItem{}, apperror.Validation("Quantity for menu item %s must be at least 1", req.MenuItemID)
	}
	if req.Quantity > maxLineQuantity {
		s.reject("invalid_quantity")
		return models.LineItem{}, apperror.Validation("Quantity for menu item %s must be at most %d", req.MenuItemID, maxLineQuantity)
	}

	item, err := s.menu.GetMenuItem(ctx, req.MenuItemID)
	if errors.Is(err, store.ErrNotFound) {
		s.reject("item_not_found")
		return models.LineItem{}, apperror.NotFound("Menu item %s not found", req.MenuItemID)
	}
	if err != nil {
		return models.LineItem{}, fmt.Errorf("load menu item %s: %w", req.MenuItemID, err)
	}
	if !item.Availability {
		s.reject("item_unavailable")
		return models.LineItem{}, apperror.Validation("%s is currently unavailable", item.Name)
	}

	return models.LineItem{
		MenuItemID: item.ID,
		Name:       item.Name,
		Price:      item.Price,
		Quantity:   req.Quantity,
	}, nil
}

// persistWithNumber assigns the first free order number and writes the order.
// The unique index on order_number settles races between the existence
// check and the insert.
func (s *OrderService) persistWithNumber(ctx context.Context, order *models.Order, at time.Time) error {
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		number := OrderNumber(at, attempt)

		taken, err := s.orders.OrderNumberExists(ctx, number)
		if err != nil {
			return fmt.Errorf("check order number %s: %w", number, err)
		}
		if taken {
			continue
		}

		order.OrderNumber = number
		resetChildKeys(order)
		err = s.orders.CreateOrder(ctx, order)
		if errors.Is(err, store.ErrDuplicateKey) {
			s.log.Debug("order number collision", slog.String("order_number", number))
			continue
		}
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return nil
	}
	return fmt.Errorf("create order: no free order number after %d attempts", maxOrderNumberAttempts)
}

func resetChildKeys(order *models.Order) {
	for i := range order.Items {
		order.Items[i].ID = 0
		order.Items[i].OrderID = ""
	}
	for i := range order.StatusHistory {
		order.StatusHistory[i].ID = 0
		order.StatusHistory[i].OrderID = ""
	}
}

// UpdateStatus moves an order to a new status. With strict transitions on,
// only moves allowed by the state machine are accepted.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, in StatusUpdate) (*models.Order, error) {
	if in.Status == "" {
		return nil, ErrStatusRequired
	}
	if !in.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.strict {
		if err := statemachine.CanTransition(current.Status, in.Status); err != nil {
			s.log.Warn("status transition rejected",
				slog.String("order_id", id),
				slog.String("from", string(current.Status)),
				slog.String("to", string(in.Status)),
			)
			return nil, err
		}
	}

	now := s.now()
	change := models.StatusChange{
		From:      current.Status,
		To:        in.Status,
		ChangedBy: in.ChangedBy,
		Note:      strings.TrimSpace(in.Note),
		CreatedAt: now,
	}
	updated, err := s.orders.TransitionStatus(ctx, id, current.Status, in.Status, change)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrOrderNotFound
	case errors.Is(err, store.ErrStatusConflict):
		return nil, apperror.Conflict("Order %s changed status while this update was in flight; reload and retry", current.OrderNumber)
	case err != nil:
		return nil, fmt.Errorf("update order %s status: %w", id, err)
	}

	s.metrics.StatusChanged(string(current.Status), string(in.Status))
	s.log.Info("order status changed",
		slog.String("order_id", updated.ID),
		slog.String("order_number", updated.OrderNumber),
		slog.String("from", string(current.Status)),
		slog.String("to", string(updated.Status)),
		slog.String("changed_by", in.ChangedBy),
	)
	s.publish(ctx, events.NewOrderEvent(events.OrderStatusChanged, updated, current.Status, in.ChangedBy, now))
	return updated, nil
}

func (s *OrderService) GetByID(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.GetOrder(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return order, nil
}

func (s *OrderService) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	order, err := s.orders.GetOrderByNumber(ctx, strings.TrimSpace(orderNumber))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderNumber, err)
	}
	return order, nil
}

// List returns orders newest first, optionally narrowed to one status.
func (s *OrderService) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	orders, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) Stats(ctx context.Context) (models.OrderStats, error) {
	totals, err := s.orders.StatusTotals(ctx)
	if err != nil {
		return models.OrderStats{}, fmt.Errorf("order stats: %w", err)
	}
	return models.SummarizeStatusTotals(totals), nil
}

func (s *OrderService) Delete(ctx context.Context, id string) error {
	err := s.orders.DeleteOrder(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	s.log.Info("order deleted", slog.String("order_id", id))
	return nil
}

func (s *OrderService) reject(reason string) {
	s.metrics.OrderRejected(reason)
	s.log.Warn("order rejected", slog.String("reason", reason))
}

// publish never fails the request; the order is already committed.
func (s *OrderService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Error("failed to publish order event",
			slog.String("type", event.Type),
			slog.String("order_number", event.OrderNumber),
			slog.Any("error", err),
		)
	}
}
