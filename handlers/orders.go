package handlers

import (
	"net/http"

	"restaurant-api/middleware"
	"restaurant-api/models"
	"restaurant-api/services"

	"github.com/gin-gonic/gin"
)

type OrderLineRequest struct {
	MenuItem string `json:"menuItem"`
	Quantity int    `json:"quantity"`
}

type ContactRequest struct {
	Phone string `json:"phone"`
	Email string `json:"email" binding:"omitempty,email"`
}

// CreateOrderRequest leaves item and customer checks to the order service so
// rejections come back in the same order for every client.
type CreateOrderRequest struct {
	Items        []OrderLineRequest `json:"items"`
	CustomerName string             `json:"customerName"`
	ContactInfo  ContactRequest     `json:"contactInfo"`
	Notes        string             `json:"notes" binding:"max=500"`
}

type ListOrdersQuery struct {
	Status models.OrderStatus `form:"status" binding:"omitempty,orderstatus"`
}

type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status"`
	Note   string             `json:"note" binding:"max=500"`
}

type OrderHandler struct {
	orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create places a new order (public)
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	lines := make([]services.LineRequest, len(req.Items))
	for i, item := range req.Items {
		lines[i] = services.LineRequest{MenuItemID: item.MenuItem, Quantity: item.Quantity}
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), services.CreateOrderInput{
		Items:        lines,
		CustomerName: req.CustomerName,
		ContactInfo:  models.ContactInfo{Phone: req.ContactInfo.Phone, Email: req.ContactInfo.Email},
		Notes:        req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Order placed successfully", order)
}

// Track looks an order up by its public order number
func (h *OrderHandler) Track(c *gin.Context) {
	order, err := h.orders.GetByOrderNumber(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", order)
}

// List returns all orders, newest first, optionally filtered by ?status=
func (h *OrderHandler) List(c *gin.Context) {
	var query ListOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindingError(c, err)
		return
	}

	var filter models.OrderFilter
	if query.Status != "" {
		filter.Status = &query.Status
	}

	orders, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, orders, len(orders))
}

func (h *OrderHandler) Stats(c *gin.Context) {
	stats, err := h.orders.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", stats)
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orders.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", order)
}

// UpdateStatus moves an order along its lifecycle. The caller is recorded in
// the status history.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), services.StatusUpdate{
		Status:    req.Status,
		Note:      req.Note,
		ChangedBy: middleware.GetUserID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Order status updated successfully", order)
}

func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.orders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Order deleted successfully", nil)
}
