package handlers

import (
	"net/http"

	"restaurant-api/models"
	"restaurant-api/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// MenuItemRequest is shared by create and update. Absent fields stay nil so
// updates only touch what the client sent.
type MenuItemRequest struct {
	Name         *string          `json:"name" binding:"omitempty,max=100"`
	Category     *models.Category `json:"category" binding:"omitempty,menucategory"`
	Description  *string          `json:"description" binding:"omitempty,max=500"`
	Image        *string          `json:"image"`
	Price        *decimal.Decimal `json:"price"`
	Availability *bool            `json:"availability"`
}

func (r MenuItemRequest) input() services.MenuInput {
	return services.MenuInput{
		Name:         r.Name,
		Category:     r.Category,
		Description:  r.Description,
		Image:        r.Image,
		Price:        r.Price,
		Availability: r.Availability,
	}
}

type MenuHandler struct {
	menu *services.MenuService
}

func NewMenuHandler(menu *services.MenuService) *MenuHandler {
	return &MenuHandler{menu: menu}
}

// List returns the catalog; ?category= and ?availability=true narrow it
func (h *MenuHandler) List(c *gin.Context) {
	var filter models.MenuFilter
	if category := c.Query("category"); category != "" {
		cat := models.Category(category)
		filter.Category = &cat
	}
	if availability, ok := c.GetQuery("availability"); ok {
		available := availability == "true"
		filter.Availability = &available
	}

	items, err := h.menu.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, items, len(items))
}

func (h *MenuHandler) Categories(c *gin.Context) {
	categories, err := h.menu.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, categories, len(categories))
}

func (h *MenuHandler) Get(c *gin.Context) {
	item, err := h.menu.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", item)
}

func (h *MenuHandler) Create(c *gin.Context) {
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	item, err := h.menu.Create(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Menu item created successfully", item)
}

func (h *MenuHandler) Update(c *gin.Context) {
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	item, err := h.menu.Update(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Menu item updated successfully", item)
}

func (h *MenuHandler) Delete(c *gin.Context) {
	if err := h.menu.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Menu item deleted successfully", nil)
}
