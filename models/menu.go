package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices and totals go over the wire as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Category is the fixed set of menu sections
type Category string

const (
	CategoryAppetizers Category = "Appetizers"
	CategoryMainCourse Category = "Main Course"
	CategoryDesserts   Category = "Desserts"
	CategoryBeverages  Category = "Beverages"
	CategorySalads     Category = "Salads"
	CategorySoups      Category = "Soups"
)

// Categories lists every allowed category in menu order.
var Categories = []Category{
	CategoryAppetizers,
	CategoryMainCourse,
	CategoryDesserts,
	CategoryBeverages,
	CategorySalads,
	CategorySoups,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type MenuItem struct {
	ID           string          `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name         string          `json:"name" gorm:"not null"`
	Category     Category        `json:"category" gorm:"not null;index"`
	Description  string          `json:"description,omitempty"`
	Image        string          `json:"image" gorm:"not null"`
	Price        decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Availability bool            `json:"availability" gorm:"not null"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// MenuFilter narrows a catalog listing; nil fields match everything.
type MenuFilter struct {
	Category     *Category
	Availability *bool
}
