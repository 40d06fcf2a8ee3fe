// Package events publishes order lifecycle messages for back-office
// consumers such as kitchen displays.
package events

import (
	"context"
	"time"

	"restaurant-api/models"

	"github.com/shopspring/decimal"
)

const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
)

// Event is the message body. Type doubles as the routing key.
type Event struct {
	Type           string             `json:"type"`
	OrderID        string             `json:"orderId"`
	OrderNumber    string             `json:"orderNumber"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previousStatus,omitempty"`
	TotalAmount    decimal.Decimal    `json:"totalAmount"`
	ItemCount      int                `json:"itemCount"`
	ChangedBy      string             `json:"changedBy,omitempty"`
	OccurredAt     time.Time          `json:"occurredAt"`
}

// NewOrderEvent describes order as it is now.
func NewOrderEvent(eventType string, order *models.Order, previous models.OrderStatus, changedBy string, at time.Time) Event {
	count := 0
	for _, line := range order.Items {
		count += line.Quantity
	}
	return Event{
		Type:           eventType,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         order.Status,
		PreviousStatus: previous,
		TotalAmount:    order.TotalAmount,
		ItemCount:      count,
		ChangedBy:      changedBy,
		OccurredAt:     at,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
