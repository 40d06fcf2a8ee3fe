// Package seed loads the sample menu and the initial admin account.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"restaurant-api/models"
	"restaurant-api/services"

	"github.com/shopspring/decimal"
)

const (
	AdminUsername        = "admin"
	AdminEmail           = "admin@restaurant.com"
	DefaultAdminPassword = "admin123"
)

type sampleItem struct {
	name        string
	category    models.Category
	description string
	image       string
	price       string
}

var sampleMenu = []sampleItem{
	{"Caesar Salad", models.CategoryAppetizers, "Fresh romaine lettuce with parmesan cheese, croutons, and Caesar dressing", "https://images.unsplash.com/photo-1546793665-c74683f339c1?w=400", "12.99"},
	{"Bruschetta", models.CategoryAppetizers, "Grilled bread topped with fresh tomatoes, garlic, and basil", "https://images.unsplash.com/photo-1572695157366-5e585ab2b69f?w=400", "9.99"},
	{"Margherita Pizza", models.CategoryMainCourse, "Classic pizza with tomato sauce, mozzarella, and fresh basil", "https://images.unsplash.com/photo-1574071318508-1cdbab80d002?w=400", "15.99"},
	{"Spaghetti Carbonara", models.CategoryMainCourse, "Pasta with creamy egg sauce, pancetta, and parmesan", "https://images.unsplash.com/photo-1612874742237-6526221588e3?w=400", "17.99"},
	{"Grilled Salmon", models.CategoryMainCourse, "Fresh Atlantic salmon with lemon butter sauce and vegetables", "https://images.unsplash.com/photo-1467003909585-2f8a72700288?w=400", "24.99"},
	{"Beef Burger", models.CategoryMainCourse, "Juicy beef patty with lettuce, tomato, cheese, and special sauce", "https://images.unsplash.com/photo-1568901346375-23c9450c58cd?w=400", "13.99"},
	{"Tiramisu", models.CategoryDesserts, "Classic Italian dessert with coffee-soaked ladyfingers and mascarpone", "https://images.unsplash.com/photo-1571877227200-a0d98ea607e9?w=400", "8.99"},
	{"Chocolate Lava Cake", models.CategoryDesserts, "Warm chocolate cake with a molten center, served with vanilla ice cream", "https://images.unsplash.com/photo-1624353365286-3f8d62daad51?w=400", "9.99"},
	{"Freshly Squeezed Orange Juice", models.CategoryBeverages, "100% fresh orange juice", "https://images.unsplash.com/photo-1600271886742-f049cd451bba?w=400", "5.99"},
	{"Iced Coffee", models.CategoryBeverages, "Cold brew coffee served over ice", "https://images.unsplash.com/photo-1517487881594-2787fef5ebf7?w=400", "4.99"},
	{"Greek Salad", models.CategorySalads, "Fresh vegetables with feta cheese, olives, and olive oil", "https://images.unsplash.com/photo-1540189549336-e6e99c3679fe?w=400", "11.99"},
	{"Tomato Soup", models.CategorySoups, "Creamy tomato soup with fresh herbs and cream", "https://images.unsplash.com/photo-1547592166-23ac45744acd?w=400", "7.99"},
}

// Result reports what Run actually wrote.
type Result struct {
	MenuItems    int
	AdminCreated bool
}

// Run inserts the sample menu when the catalog is empty and creates the admin
// account unless it already exists. Running it twice is harmless.
func Run(ctx context.Context, menu *services.MenuService, auth *services.AuthService, adminPassword string, log *slog.Logger) (Result, error) {
	var res Result
	if adminPassword == "" {
		adminPassword = DefaultAdminPassword
	}

	existing, err := menu.List(ctx, models.MenuFilter{})
	if err != nil {
		return res, fmt.Errorf("seed: %w", err)
	}
	if len(existing) == 0 {
		for _, s := range sampleMenu {
			price := decimal.RequireFromString(s.price)
			available := true
			if _, err := menu.Create(ctx, services.MenuInput{
				Name:         &s.name,
				Category:     &s.category,
				Description:  &s.description,
				Image:        &s.image,
				Price:        &price,
				Availability: &available,
			}); err != nil {
				return res, fmt.Errorf("seed menu item %q: %w", s.name, err)
			}
			res.MenuItems++
		}
	} else {
		log.Info("menu already populated, skipping sample items", slog.Int("items", len(existing)))
	}

	_, created, err := auth.EnsureAdmin(ctx, services.RegisterInput{
		Username: AdminUsername,
		Email:    AdminEmail,
		Password: adminPassword,
	})
	if err != nil {
		return res, fmt.Errorf("seed admin: %w", err)
	}
	res.AdminCreated = created

	log.Info("seed complete", slog.Int("menu_items", res.MenuItems), slog.Bool("admin_created", created))
	return res, nil
}
