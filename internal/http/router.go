package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vbhan/go-shop/internal/auth"
	"github.com/vbhan/go-shop/internal/cart"
	"github.com/vbhan/go-shop/internal/config"
	"github.com/vbhan/go-shop/internal/logging"
	"github.com/vbhan/go-shop/internal/product"
	"github.com/vbhan/go-shop/internal/session"
	"github.com/vbhan/go-shop/internal/view"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	sessions *session.Manager,
	authHandler *auth.Handler,
	productHandler *product.Handler,
	cartHandler *cart.Handler,
	renderer *view.Renderer,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))
	r.Use(sessions.Loader)

	// Public routes
	r.Get("/", productHandler.Index)

	r.Get("/login", authHandler.GetLogin)
	r.Post("/login", authHandler.PostLogin)
	r.Get("/signup", authHandler.GetSignup)
	r.Post("/signup", authHandler.PostSignup)
	r.Get("/reset", authHandler.GetReset)
	r.Post("/reset", authHandler.PostReset)
	r.Get("/reset/{token}", authHandler.GetNewPassword)
	r.Post("/new-password", authHandler.PostNewPassword)

	// Routes requiring an authenticated session
	r.Group(func(r chi.Router) {
		r.Use(sessions.RequireAuth)
		r.Use(authHandler.VerifyUser)

		r.Post("/logout", authHandler.PostLogout)

		r.Get("/cart", cartHandler.GetCart)
		r.Post("/cart/add", cartHandler.PostAdd)
		r.Post("/cart/delete-item", cartHandler.PostDeleteItem)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/products", productHandler.GetAdminProducts)
			r.Get("/add-product", productHandler.GetAddProduct)
			r.Post("/add-product", productHandler.PostAddProduct)
			r.Get("/edit-product/{id}", productHandler.GetEditProduct)
			r.Post("/edit-product", productHandler.PostEditProduct)
			r.Post("/delete-product", productHandler.PostDeleteProduct)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		renderer.NotFound(w)
	})

	return r
}
