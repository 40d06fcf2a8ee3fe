package mongostore

import (
	"fmt"
	"time"

	"restaurant-api/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type menuItemDoc struct {
	ID           string               `bson:"_id"`
	Name         string               `bson:"name"`
	Category     string               `bson:"category"`
	Description  string               `bson:"description,omitempty"`
	Image        string               `bson:"image"`
	Price        primitive.Decimal128 `bson:"price"`
	Availability bool                 `bson:"availability"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

type lineItemDoc struct {
	MenuItem string               `bson:"menuItem"`
	Name     string               `bson:"name"`
	Price    primitive.Decimal128 `bson:"price"`
	Quantity int                  `bson:"quantity"`
}

type contactDoc struct {
	Phone string `bson:"phone"`
	Email string `bson:"email,omitempty"`
}

type statusChangeDoc struct {
	From      string    `bson:"from,omitempty"`
	To        string    `bson:"to"`
	ChangedBy string    `bson:"changedBy,omitempty"`
	Note      string    `bson:"note,omitempty"`
	ChangedAt time.Time `bson:"changedAt"`
}

type orderDoc struct {
	ID            string               `bson:"_id"`
	OrderNumber   string               `bson:"orderNumber"`
	Items         []lineItemDoc        `bson:"items"`
	CustomerName  string               `bson:"customerName"`
	ContactInfo   contactDoc           `bson:"contactInfo"`
	TotalAmount   primitive.Decimal128 `bson:"totalAmount"`
	Status        string               `bson:"status"`
	Notes         string               `bson:"notes,omitempty"`
	StatusHistory []statusChangeDoc    `bson:"statusHistory"`
	CreatedAt     time.Time            `bson:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt"`
}

type userDoc struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode decimal %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode decimal %s: %w", v, err)
	}
	return d, nil
}

func menuItemToDoc(item *models.MenuItem) (menuItemDoc, error) {
	price, err := toDecimal128(item.Price)
	if err != nil {
		return menuItemDoc{}, err
	}
	return menuItemDoc{
		ID:           item.ID,
		Name:         item.Name,
		Category:     string(item.Category),
		Description:  item.Description,
		Image:        item.Image,
		Price:        price,
		Availability: item.Availability,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}, nil
}

func (d menuItemDoc) model() (models.MenuItem, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return models.MenuItem{}, err
	}
	return models.MenuItem{
		ID:           d.ID,
		Name:         d.Name,
		Category:     models.Category(d.Category),
		Description:  d.Description,
		Image:        d.Image,
		Price:        price,
		Availability: d.Availability,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

func statusChangeToDoc(c models.StatusChange) statusChangeDoc {
	return statusChangeDoc{
		From:      string(c.From),
		To:        string(c.To),
		ChangedBy: c.ChangedBy,
		Note:      c.Note,
		ChangedAt: c.CreatedAt,
	}
}

func orderToDoc(order *models.Order) (orderDoc, error) {
	total, err := toDecimal128(order.TotalAmount)
	if err != nil {
		return orderDoc{}, err
	}

	items := make([]lineItemDoc, 0, len(order.Items))
	for _, line := range order.Items {
		price, err := toDecimal128(line.Price)
		if err != nil {
			return orderDoc{}, err
		}
		items = append(items, lineItemDoc{
			MenuItem: line.MenuItemID,
			Name:     line.Name,
			Price:    price,
			Quantity: line.Quantity,
		})
	}

	history := make([]statusChangeDoc, 0, len(order.StatusHistory))
	for _, change := range order.StatusHistory {
		history = append(history, statusChangeToDoc(change))
	}

	return orderDoc{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Items:         items,
		CustomerName:  order.CustomerName,
		ContactInfo:   contactDoc{Phone: order.ContactInfo.Phone, Email: order.ContactInfo.Email},
		TotalAmount:   total,
		Status:        string(order.Status),
		Notes:         order.Notes,
		StatusHistory: history,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}, nil
}

func (d orderDoc) model() (models.Order, error) {
	total, err := fromDecimal128(d.TotalAmount)
	if err != nil {
		return models.Order{}, err
	}

	items := make([]models.LineItem, 0, len(d.Items))
	for _, line := range d.Items {
		price, err := fromDecimal128(line.Price)
		if err != nil {
			return models.Order{}, err
		}
		items = append(items, models.LineItem{
			OrderID:    d.ID,
			MenuItemID: line.MenuItem,
			Name:       line.Name,
			Price:      price,
			Quantity:   line.Quantity,
		})
	}

	history := make([]models.StatusChange, 0, len(d.StatusHistory))
	for _, change := range d.StatusHistory {
		history = append(history, models.StatusChange{
			OrderID:   d.ID,
			From:      models.OrderStatus(change.From),
			To:        models.OrderStatus(change.To),
			ChangedBy: change.ChangedBy,
			Note:      change.Note,
			CreatedAt: change.ChangedAt,
		})
	}

	return models.Order{
		ID:            d.ID,
		OrderNumber:   d.OrderNumber,
		Items:         items,
		CustomerName:  d.CustomerName,
		ContactInfo:   models.ContactInfo{Phone: d.ContactInfo.Phone, Email: d.ContactInfo.Email},
		TotalAmount:   total,
		Status:        models.OrderStatus(d.Status),
		Notes:         d.Notes,
		StatusHistory: history,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

func userToDoc(u *models.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDoc) model() models.User {
	return models.User{
		ID:           d.ID,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         models.UserRole(d.Role),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}
