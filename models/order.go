package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents all possible states of a restaurant order
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusPreparing OrderStatus = "Preparing"
	StatusServed    OrderStatus = "Served"
	StatusCompleted OrderStatus = "Completed"
	StatusCancelled OrderStatus = "Cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []OrderStatus{
	StatusPending,
	StatusPreparing,
	StatusServed,
	StatusCompleted,
	StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// CountsAsRevenue reports whether orders in this status contribute to revenue.
func (s OrderStatus) CountsAsRevenue() bool {
	return s == StatusServed || s == StatusCompleted
}

type Order struct {
	ID            string          `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber   string          `json:"orderNumber" gorm:"uniqueIndex;not null"`
	Items         []LineItem      `json:"items" gorm:"foreignKey:OrderID"`
	CustomerName  string          `json:"customerName" gorm:"not null"`
	ContactInfo   ContactInfo     `json:"contactInfo" gorm:"embedded;embeddedPrefix:contact_"`
	TotalAmount   decimal.Decimal `json:"totalAmount" gorm:"type:decimal(12,2);not null"`
	Status        OrderStatus     `json:"status" gorm:"not null;index"`
	Notes         string          `json:"notes,omitempty"`
	StatusHistory []StatusChange  `json:"statusHistory,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time       `json:"createdAt" gorm:"index"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type ContactInfo struct {
	Phone string `json:"phone" gorm:"not null"`
	Email string `json:"email,omitempty"`
}

// LineItem is an ordered menu item captured at order time. Name and price
// are snapshots and never follow later catalog edits.
type LineItem struct {
	ID         uint            `json:"-" gorm:"primaryKey"`
	OrderID    string          `json:"-" gorm:"type:varchar(36);not null;index"`
	MenuItemID string          `json:"menuItem" gorm:"type:varchar(36);not null"`
	Name       string          `json:"name" gorm:"not null"`
	Price      decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Quantity   int             `json:"quantity" gorm:"not null"`
}

// Subtotal is price × quantity for the line.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// StatusChange is one entry of an order's audit trail
type StatusChange struct {
	ID        uint        `json:"-" gorm:"primaryKey"`
	OrderID   string      `json:"-" gorm:"type:varchar(36);not null;index"`
	From      OrderStatus `json:"from,omitempty"`
	To        OrderStatus `json:"to" gorm:"not null"`
	ChangedBy string      `json:"changedBy,omitempty"`
	Note      string      `json:"note,omitempty"`
	CreatedAt time.Time   `json:"changedAt"`
}

// OrderFilter narrows an order listing; a nil Status matches every order.
type OrderFilter struct {
	Status *OrderStatus
}

// StatusTotal is the number of orders in one status and the sum of their totals.
type StatusTotal struct {
	Status OrderStatus
	Count  int64
	Amount decimal.Decimal
}

// OrderStats is the admin dashboard summary.
type OrderStats struct {
	TotalOrders     int64           `json:"totalOrders"`
	PendingOrders   int64           `json:"pendingOrders"`
	PreparingOrders int64           `json:"preparingOrders"`
	ServedOrders    int64           `json:"servedOrders"`
	CompletedOrders int64           `json:"completedOrders"`
	CancelledOrders int64           `json:"cancelledOrders"`
	Revenue         decimal.Decimal `json:"revenue"`
}

// SummarizeStatusTotals folds per-status totals into dashboard stats.
// Revenue only counts Served and Completed orders.
func SummarizeStatusTotals(totals []StatusTotal) OrderStats {
	stats := OrderStats{Revenue: decimal.Zero}
	for _, t := range totals {
		stats.TotalOrders += t.Count
		switch t.Status {
		case StatusPending:
			stats.PendingOrders += t.Count
		case StatusPreparing:
			stats.PreparingOrders += t.Count
		case StatusServed:
			stats.ServedOrders += t.Count
		case StatusCompleted:
			stats.CompletedOrders += t.Count
		case StatusCancelled:
			stats.CancelledOrders += t.Count
		}
		if t.Status.CountsAsRevenue() {
			stats.Revenue = stats.Revenue.Add(t.Amount)
		}
	}
	return stats
}
