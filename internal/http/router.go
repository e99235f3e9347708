package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

type Deps struct {
	Logger           *zap.Logger
	CORSAllowOrigins []string

	Cart   *CartHandler
	Auth   *AuthHandler
	Admin  *AdminHandler
	Owner  *OwnerHandler
	Health *HealthHandler
}

func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := d.CORSAllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middlewares (outer -> inner)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.HeaderCorrelationID,
			middleware.HeaderCausationID, middleware.HeaderSessionID},
		ExposedHeaders: []string{middleware.HeaderCorrelationID},
		MaxAge:         300,
	}))
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(logger))

	health := d.Health
	if health == nil {
		health = &HealthHandler{}
	}
	r.Get("/health", health.Storefront)
	r.Get("/health/backend", health.Backend)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireSession)

		if d.Cart != nil {
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", d.Cart.GetCart)
				r.Delete("/", d.Cart.ClearCart)
				r.Post("/items", d.Cart.AddItem)
				r.Put("/items/{id}", d.Cart.UpdateItem)
				r.Delete("/items/{id}", d.Cart.RemoveItem)
				r.Post("/checkout", d.Cart.Checkout)
			})
		}
		if d.Auth != nil {
			r.Post("/auth/login", d.Auth.Login)
			r.Post("/auth/logout", d.Auth.Logout)
		}
		if d.Admin != nil {
			r.Get("/admin/orders", d.Admin.ListOrders)
			r.Get("/admin/orders/{id}", d.Admin.GetOrder)
			r.Put("/admin/orders/{id}", d.Admin.UpdateOrder)
		}
		if d.Owner != nil {
			r.Get("/owner/menu", d.Owner.Menu)
		}
	})

	return r
}
