package routes

import (
	"log/slog"

	"restaurant-api/handlers"
	"restaurant-api/metrics"
	"restaurant-api/middleware"
	"restaurant-api/models"
	"restaurant-api/services"

	"github.com/gin-gonic/gin"
)

// Deps is everything the HTTP layer needs from the rest of the application.
type Deps struct {
	Orders    *services.OrderService
	Menu      *services.MenuService
	Auth      *services.AuthService
	Tokens    *middleware.TokenManager
	Store     handlers.Pinger
	Metrics   *metrics.Metrics
	Log       *slog.Logger
	ClientURL string
	Strict    bool
}

// NewRouter builds the engine with the shared middleware chain and all routes.
func NewRouter(d Deps) *gin.Engine {
	handlers.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(middleware.CORS(d.ClientURL))
	r.Use(middleware.Metrics(d.Metrics))

	r.GET("/", handlers.Welcome)
	r.GET("/health", handlers.Health(d.Store))
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	r.NoRoute(handlers.NotFound)

	SetupRoutes(r, d)
	return r
}

func SetupRoutes(r *gin.Engine, d Deps) {
	orders := handlers.NewOrderHandler(d.Orders)
	menu := handlers.NewMenuHandler(d.Menu)
	auth := handlers.NewAuthHandler(d.Auth, d.Tokens)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", auth.Register)
		public.POST("/auth/login", auth.Login)
		public.POST("/auth/logout", auth.Logout)

		public.POST("/orders", orders.Create)
		public.GET("/orders/tracking/:orderNumber", orders.Track)

		public.GET("/menu", menu.List)
		public.GET("/menu/categories", menu.Categories)
		public.GET("/menu/:id", menu.Get)

		public.GET("/state-machine", handlers.StateMachine(d.Strict))
	}

	// ── Authenticated routes ───────────────────────────────────────
	authed := r.Group("/api")
	authed.Use(d.Tokens.AuthRequired())
	{
		authed.GET("/auth/profile", auth.Profile)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api")
	admin.Use(d.Tokens.AuthRequired(), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/orders", orders.List)
		admin.GET("/orders/stats", orders.Stats)
		admin.GET("/orders/:id", orders.Get)
		admin.PUT("/orders/:id/status", orders.UpdateStatus)
		admin.DELETE("/orders/:id", orders.Delete)

		admin.POST("/menu", menu.Create)
		admin.PUT("/menu/:id", menu.Update)
		admin.DELETE("/menu/:id", menu.Delete)
	}
}
