package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shoplane/shoplane-backend/api/controllers"
	"github.com/shoplane/shoplane-backend/api/middleware"
	authsvc "github.com/shoplane/shoplane-backend/internal/auth"
	cartsvc "github.com/shoplane/shoplane-backend/internal/cart"
	catalogsvc "github.com/shoplane/shoplane-backend/internal/catalog"
	checkoutsvc "github.com/shoplane/shoplane-backend/internal/checkout"
	ordersvc "github.com/shoplane/shoplane-backend/internal/orders"
	usersvc "github.com/shoplane/shoplane-backend/internal/users"
	"github.com/shoplane/shoplane-backend/pkg/auth/session"
	"github.com/shoplane/shoplane-backend/pkg/config"
	"github.com/shoplane/shoplane-backend/pkg/enums"
	"github.com/shoplane/shoplane-backend/pkg/logger"
	"github.com/shoplane/shoplane-backend/pkg/metrics"
	"github.com/shoplane/shoplane-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       *redis.Client
	Sessions    session.Checker
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Auth     authsvc.Service
	Users    usersvc.Service
	Catalog  catalogsvc.Service
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Orders   ordersvc.Service
}

// NewRouter assembles the full route tree.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(logg, map[string]controllers.Pinger{
			"postgres": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).
			Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
			r.Get("/me", controllers.AuthMe(deps.Auth, logg))
		})
	})

	r.Route("/api", func(r chi.Router) {
		// Public catalog reads.
		r.Group(func(r chi.Router) {
			r.Get("/products", controllers.ProductList(deps.Catalog, logg))
			r.Get("/products/{id}", controllers.ProductGet(deps.Catalog, logg))
			r.Get("/categories", controllers.CategoryList(deps.Catalog, logg))
			r.Get("/categories/{id}/products", controllers.CategoryProducts(deps.Catalog, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", controllers.UserProfile(deps.Users, logg))
				r.Put("/me", controllers.UserUpdateProfile(deps.Users, logg))

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin.String()))
					r.Get("/", controllers.UserList(deps.Users, logg))
					r.Get("/{id}", controllers.UserGet(deps.Users, logg))
					r.Put("/{id}", controllers.UserAdminUpdate(deps.Users, logg))
					r.Delete("/{id}", controllers.UserDelete(deps.Users, logg))
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin.String()))
				r.Post("/products", controllers.ProductCreate(deps.Catalog, logg))
				r.Put("/products/{id}", controllers.ProductUpdate(deps.Catalog, logg))
				r.Delete("/products/{id}", controllers.ProductDelete(deps.Catalog, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartView(deps.Cart, logg))
				r.Delete("/", controllers.CartClear(deps.Cart, logg))
				r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
				r.Put("/items/{id}", controllers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/items/{id}", controllers.CartRemoveItem(deps.Cart, logg))
				r.Post("/{cartId}/checkout", controllers.CartCheckout(deps.Checkout, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderHistory(deps.Orders, logg))
				r.Get("/{id}", controllers.OrderGet(deps.Orders, logg))
			})
		})
	})

	return r
}
