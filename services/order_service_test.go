package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"restaurant-api/apperror"
	"restaurant-api/events"
	"restaurant-api/metrics"
	"restaurant-api/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderNumberPattern = regexp.MustCompile(`^ORD-\d+$`)

func validInput(lines ...LineRequest) CreateOrderInput {
	return CreateOrderInput{
		Items:        lines,
		CustomerName: "Jane Doe",
		ContactInfo:  models.ContactInfo{Phone: "555-0100", Email: " Jane@Example.com "},
		Notes:        "window seat",
	}
}

func TestCreateOrderComputesTotalAndSnapshots(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)
	coffee := addMenuItem(t, s, "Iced Coffee", models.CategoryBeverages, "4.99", true)
	svc := NewOrderService(s, s)

	order, err := svc.CreateOrder(context.Background(), validInput(
		LineRequest{MenuItemID: salad.ID, Quantity: 2},
		LineRequest{MenuItemID: coffee.ID, Quantity: 3},
	))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.Regexp(t, orderNumberPattern, order.OrderNumber)
	assert.Equal(t, "40.95", order.TotalAmount.StringFixed(2))
	assert.Equal(t, "jane@example.com", order.ContactInfo.Email)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Caesar Salad", order.Items[0].Name)
	assert.Equal(t, "12.99", order.Items[0].Price.StringFixed(2))
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, models.StatusPending, order.StatusHistory[0].To)

	stored, err := svc.GetByOrderNumber(context.Background(), order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
	assert.Equal(t, "40.95", stored.TotalAmount.StringFixed(2))
}

func TestCreateOrderCaesarSaladScenario(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)

	order, err := NewOrderService(s, s).CreateOrder(context.Background(),
		validInput(LineRequest{MenuItemID: salad.ID, Quantity: 2}))
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("25.98")))
}

func TestCreateOrderTotalIsExactDecimal(t *testing.T) {
	s := newTestStore(t)
	a := addMenuItem(t, s, "Bruschetta", models.CategoryAppetizers, "0.10", true)
	b := addMenuItem(t, s, "Tomato Soup", models.CategorySoups, "0.20", true)

	order, err := NewOrderService(s, s).CreateOrder(context.Background(), validInput(
		LineRequest{MenuItemID: a.ID, Quantity: 1},
		LineRequest{MenuItemID: b.ID, Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, "0.3", order.TotalAmount.String())
}

func TestCreateOrderValidationOrder(t *testing.T) {
	s := newTestStore(t)
	svc := NewOrderService(s, s)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, CreateOrderInput{})
	assert.ErrorIs(t, err, ErrEmptyOrder)

	// customer info is checked before any line is resolved
	_, err = svc.CreateOrder(ctx, CreateOrderInput{
		Items:       []LineRequest{{MenuItemID: "does-not-exist", Quantity: 1}},
		ContactInfo: models.ContactInfo{Phone: "555-0100"},
	})
	assert.ErrorIs(t, err, ErrMissingCustomerInfo)

	_, err = svc.CreateOrder(ctx, CreateOrderInput{
		Items:        []LineRequest{{MenuItemID: "does-not-exist", Quantity: 1}},
		CustomerName: "Jane Doe",
		ContactInfo:  models.ContactInfo{Phone: "   "},
	})
	assert.ErrorIs(t, err, ErrMissingCustomerInfo)

	_, err = svc.CreateOrder(ctx, validInput(LineRequest{MenuItemID: "does-not-exist", Quantity: 1}))
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Equal(t, "Menu item does-not-exist not found", apperror.PublicMessage(err))

	assert.Zero(t, countOrders(t, s))
}

func TestCreateOrderRejectsBadQuantity(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)

	_, err := NewOrderService(s, s).CreateOrder(context.Background(),
		validInput(LineRequest{MenuItemID: salad.ID, Quantity: 0}))
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = NewOrderService(s, s).CreateOrder(context.Background(),
		validInput(LineRequest{MenuItemID: salad.ID, Quantity: maxLineQuantity + 1}))
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Contains(t, apperror.PublicMessage(err), "at most 100")

	assert.Zero(t, countOrders(t, s))
}

func TestCreateOrderRejectsOversizedTotal(t *testing.T) {
	s := newTestStore(t)
	banquet := addMenuItem(t, s, "Private Dining", models.CategoryMainCourse, "999999999.99", true)

	_, err := NewOrderService(s, s).CreateOrder(context.Background(),
		validInput(LineRequest{MenuItemID: banquet.ID, Quantity: 20}))
	assert.ErrorIs(t, err, ErrOrderTotalTooHigh)
	assert.Equal(t, 400, apperror.HTTPStatus(err))
	assert.Zero(t, countOrders(t, s))
}

func TestCreateOrderRejectsUnavailableAtomically(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)
	cake := addMenuItem(t, s, "Chocolate Lava Cake", models.CategoryDesserts, "9.99", false)

	_, err := NewOrderService(s, s).CreateOrder(context.Background(), validInput(
		LineRequest{MenuItemID: salad.ID, Quantity: 1},
		LineRequest{MenuItemID: cake.ID, Quantity: 1},
	))
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Equal(t, "Chocolate Lava Cake is currently unavailable", apperror.PublicMessage(err))
	assert.Zero(t, countOrders(t, s))
}

func TestOrderSnapshotSurvivesMenuEdits(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)
	orders := NewOrderService(s, s)
	menu := NewMenuService(s, nil)
	ctx := context.Background()

	order, err := orders.CreateOrder(ctx, validInput(LineRequest{MenuItemID: salad.ID, Quantity: 2}))
	require.NoError(t, err)

	newName := "Kale Caesar"
	newPrice := decimal.RequireFromString("15.50")
	_, err = menu.Update(ctx, salad.ID, MenuInput{Name: &newName, Price: &newPrice})
	require.NoError(t, err)
	require.NoError(t, menu.Delete(ctx, salad.ID))

	stored, err := orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Caesar Salad", stored.Items[0].Name)
	assert.Equal(t, "12.99", stored.Items[0].Price.StringFixed(2))
	assert.Equal(t, "25.98", stored.TotalAmount.StringFixed(2))
}

func TestOrderNumbersUniqueWithinSameMillisecond(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)
	fixed := time.UnixMilli(1714564800000)
	svc := NewOrderService(s, s, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, validInput(LineRequest{MenuItemID: salad.ID, Quantity: 1}))
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, validInput(LineRequest{MenuItemID: salad.ID, Quantity: 1}))
	require.NoError(t, err)

	assert.Equal(t, "ORD-1714564800000", first.OrderNumber)
	assert.Equal(t, "ORD-1714564800001", second.OrderNumber)
}

func TestOrderNumbersUniqueUnderConcurrency(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)
	fixed := time.UnixMilli(1714564800000)
	svc := NewOrderService(s, s, WithClock(func() time.Time { return fixed }))

	const n = 5
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := svc.CreateOrder(context.Background(), validInput(LineRequest{MenuItemID: salad.ID, Quantity: 1}))
			if assert.NoError(t, err) {
				numbers <- order.OrderNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for number := range numbers {
		assert.False(t, seen[number], "duplicate %s", number)
		seen[number] = true
	}
	assert.Len(t, seen, n)
}

func TestOrderNumberRetriesAfterInsertCollision(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)
	fixed := time.UnixMilli(1714564800000)
	racing := &racingOrderStore{OrderStore: s, collisions: 1}
	svc := NewOrderService(racing, s, WithClock(func() time.Time { return fixed }))

	order, err := svc.CreateOrder(context.Background(), validInput(LineRequest{MenuItemID: salad.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, []string{"ORD-1714564800000", "ORD-1714564800001"}, racing.tried)
	assert.Equal(t, "ORD-1714564800001", order.OrderNumber)
}

func TestOrderNumberExhaustionIsInternal(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)
	svc := NewOrderService(takenNumbersStore{OrderStore: s}, s)

	_, err := svc.CreateOrder(context.Background(), validInput(LineRequest{MenuItemID: salad.ID, Quantity: 1}))
	require.Error(t, err)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	assert.Zero(t, countOrders(t, s))
}

func placeOrder(t *testing.T, svc *OrderService, menuItemID string) *models.Order {
	t.Helper()
	order, err := svc.CreateOrder(context.Background(), validInput(LineRequest{MenuItemID: menuItemID, Quantity: 1}))
	require.NoError(t, err)
	return order
}

func TestUpdateStatusWorkflow(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)
	svc := NewOrderService(s, s)
	ctx := context.Background()
	order := placeOrder(t, svc, salad.ID)

	updated, err := svc.UpdateStatus(ctx, order.ID, StatusUpdate{Status: models.StatusPreparing, ChangedBy: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, updated.Status)
	assert.False(t, updated.UpdatedAt.Before(order.UpdatedAt))
	require.Len(t, updated.StatusHistory, 2)
	assert.Equal(t, "admin-1", updated.StatusHistory[1].ChangedBy)

	_, err = svc.UpdateStatus(ctx, order.ID, StatusUpdate{Status: models.StatusCompleted})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "illegal transition")

	for _, next := range []models.OrderStatus{models.StatusServed, models.StatusCompleted} {
		_, err = svc.UpdateStatus(ctx, order.ID, StatusUpdate{Status: next})
		require.NoError(t, err)
	}

	// Completed is terminal
	for _, next := range models.Statuses {
		_, err = svc.UpdateStatus(ctx, order.ID, StatusUpdate{Status: next})
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err), "Completed → %s", next)
	}

	stored, err := svc.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Len(t, stored.StatusHistory, 4)
}

func TestCancelledIsTerminal(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)
	svc := NewOrderService(s, s)
	ctx := context.Background()
	order := placeOrder(t, svc, salad.ID)

	_, err := svc.UpdateStatus(ctx, order.ID, StatusUpdate{Status: models.StatusCancelled})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, order.ID, StatusUpdate{Status: models.StatusPending})
	assert.Error(t, err)
}

func TestUpdateStatusInputErrors(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)
	svc := NewOrderService(s, s)
	ctx := context.Background()
	order := placeOrder(t, svc, salad.ID)

	_, err := svc.UpdateStatus(ctx, order.ID, StatusUpdate{})
	assert.ErrorIs(t, err, ErrStatusRequired)

	_, err = svc.UpdateStatus(ctx, order.ID, StatusUpdate{Status: "Delivered"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.UpdateStatus(ctx, "missing", StatusUpdate{Status: models.StatusPreparing})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestNonStrictTransitionsAllowAnyKnownStatus(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)
	svc := NewOrderService(s, s, WithStrictTransitions(false))
	ctx := context.Background()
	order := placeOrder(t, svc, salad.ID)

	updated, err := svc.UpdateStatus(ctx, order.ID, StatusUpdate{Status: models.StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)

	_, err = svc.UpdateStatus(ctx, order.ID, StatusUpdate{Status: "Delivered"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatusConflict(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)
	order := placeOrder(t, NewOrderService(s, s), salad.ID)

	svc := NewOrderService(conflictingOrderStore{OrderStore: s}, s)
	_, err := svc.UpdateStatus(context.Background(), order.ID, StatusUpdate{Status: models.StatusPreparing})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, http.StatusConflict, apperror.HTTPStatus(err))
}

func TestStoreFailuresAreInternal(t *testing.T) {
	s := newTestStore(t)
	svc := NewOrderService(brokenOrderStore{OrderStore: s}, s)

	_, err := svc.GetByID(context.Background(), "o1")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperror.HTTPStatus(err))
	assert.Equal(t, "Internal server error", apperror.PublicMessage(err))

	_, err = svc.Stats(context.Background())
	assert.Error(t, err)
}

func TestStatsConsistency(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)
	svc := NewOrderService(s, s)
	ctx := context.Background()

	advance := func(order *models.Order, path ...models.OrderStatus) {
		for _, next := range path {
			_, err := svc.UpdateStatus(ctx, order.ID, StatusUpdate{Status: next})
			require.NoError(t, err)
		}
	}
	placeOrder(t, svc, salad.ID)
	advance(placeOrder(t, svc, salad.ID), models.StatusPreparing)
	advance(placeOrder(t, svc, salad.ID), models.StatusPreparing, models.StatusServed)
	advance(placeOrder(t, svc, salad.ID), models.StatusPreparing, models.StatusServed, models.StatusCompleted)
	advance(placeOrder(t, svc, salad.ID), models.StatusCancelled)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, stats.TotalOrders)
	assert.Equal(t, stats.TotalOrders,
		stats.PendingOrders+stats.PreparingOrders+stats.ServedOrders+stats.CompletedOrders+stats.CancelledOrders)
	assert.EqualValues(t, 1, stats.ServedOrders)
	assert.EqualValues(t, 1, stats.CompletedOrders)
	assert.Equal(t, "25.98", stats.Revenue.StringFixed(2))
}

func TestListFiltersAndValidatesStatus(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)
	svc := NewOrderService(s, s)
	ctx := context.Background()

	first := placeOrder(t, svc, salad.ID)
	placeOrder(t, svc, salad.ID)
	_, err := svc.UpdateStatus(ctx, first.ID, StatusUpdate{Status: models.StatusPreparing})
	require.NoError(t, err)

	preparing := models.StatusPreparing
	orders, err := svc.List(ctx, models.OrderFilter{Status: &preparing})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, first.ID, orders[0].ID)

	bogus := models.OrderStatus("Delivered")
	_, err = svc.List(ctx, models.OrderFilter{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDeleteOrder(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)
	svc := NewOrderService(s, s)
	ctx := context.Background()
	order := placeOrder(t, svc, salad.ID)

	require.NoError(t, svc.Delete(ctx, order.ID))
	assert.ErrorIs(t, svc.Delete(ctx, order.ID), ErrOrderNotFound)
	_, err := svc.GetByOrderNumber(ctx, order.OrderNumber)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderEventsArePublished(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)
	pub := &recordingPublisher{}
	svc := NewOrderService(s, s, WithPublisher(pub))
	ctx := context.Background()

	order := placeOrder(t, svc, salad.ID)
	_, err := svc.UpdateStatus(ctx, order.ID, StatusUpdate{Status: models.StatusPreparing, ChangedBy: "admin-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{events.OrderCreated, events.OrderStatusChanged}, pub.types())
	changed := pub.events[1]
	assert.Equal(t, order.OrderNumber, changed.OrderNumber)
	assert.Equal(t, models.StatusPending, changed.PreviousStatus)
	assert.Equal(t, models.StatusPreparing, changed.Status)
}

func TestPublishFailureDoesNotFailTheOrder(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)
	pub := &recordingPublisher{err: errors.New("broker unreachable")}
	svc := NewOrderService(s, s, WithPublisher(pub))

	order := placeOrder(t, svc, salad.ID)
	assert.NotEmpty(t, order.OrderNumber)
	assert.Equal(t, 1, countOrders(t, s))
}

func TestOrderMetrics(t *testing.T) {
	s := newTestStore(t)
	salad := addMenuItem(t, s, "Caesar Salad", models.CategoryAppetizers, "12.99", true)
	m := metrics.New()
	svc := NewOrderService(s, s, WithMetrics(m))
	ctx := context.Background()

	order := placeOrder(t, svc, salad.ID)
	_, err := svc.CreateOrder(ctx, CreateOrderInput{})
	require.Error(t, err)
	_, err = svc.UpdateStatus(ctx, order.ID, StatusUpdate{Status: models.StatusPreparing})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "restaurant_orders_created_total 1")
	assert.Contains(t, body, `restaurant_order_rejections_total{reason="empty_order"} 1`)
	assert.Contains(t, body, fmt.Sprintf(`restaurant_order_status_transitions_total{from=%q,to=%q} 1`, "Pending", "Preparing"))
}

func TestOrderNumberFormat(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	assert.Equal(t, "ORD-1700000000000", OrderNumber(at, 0))
	assert.Equal(t, "ORD-1700000000003", OrderNumber(at, 3))
}
