package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/wholesale-backend/api/controllers"
	"github.com/angelmondragon/wholesale-backend/api/middleware"
	"github.com/angelmondragon/wholesale-backend/internal/auth"
	"github.com/angelmondragon/wholesale-backend/internal/cart"
	"github.com/angelmondragon/wholesale-backend/internal/categories"
	"github.com/angelmondragon/wholesale-backend/internal/checkout"
	"github.com/angelmondragon/wholesale-backend/internal/orders"
	"github.com/angelmondragon/wholesale-backend/internal/products"
	"github.com/angelmondragon/wholesale-backend/internal/uploads"
	"github.com/angelmondragon/wholesale-backend/pkg/config"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/metrics"
	"github.com/angelmondragon/wholesale-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers. DB and Redis are
// nil when not configured.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         controllers.Pinger
	Redis      *redis.Client
	Gatherer   prometheus.Gatherer
	HTTP       *metrics.HTTPMetrics
	Auth       auth.Service
	Categories categories.Service
	Products   products.Service
	Cart       cart.Service
	Checkout   checkout.Service
	Orders     orders.Service
	Uploads    uploads.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		chimw.RealIP,
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTP),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	cartCookies := middleware.CookieOptions{Secure: cfg.App.IsProd(), MaxAge: cfg.Cart.SessionTTL}
	adminCookies := middleware.CookieOptions{Secure: cfg.App.IsProd(), MaxAge: cfg.JWT.TTL()}

	loginLimit := func(next http.Handler) http.Handler { return next }
	if deps.Redis != nil {
		loginLimit = middleware.LoginThrottle(middleware.Throttle{
			Name:    "login",
			Window:  cfg.AuthRateLimit.LoginWindow,
			PerIP:   cfg.AuthRateLimit.LoginIPLimit,
			PerUser: cfg.AuthRateLimit.LoginUserLimit,
		}, deps.Redis, logg)
	}

	checks := map[string]controllers.Pinger{"database": nil, "redis": nil}
	if deps.DB != nil {
		checks["database"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, checks, logg))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	if dir := cfg.Uploads.Dir; dir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(dir))))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/categories", controllers.CategoryList(deps.Categories, logg))
		r.Get("/categories/{slug}", controllers.CategoryDetail(deps.Categories, logg))
		r.Get("/products", controllers.ProductList(deps.Products, logg))
		r.Get("/products/{slug}", controllers.ProductDetail(deps.Products, logg))
		r.Get("/products/{slug}/price", controllers.ProductPrice(deps.Products, logg))
		r.Post("/orders", controllers.OrderCreate(deps.Orders, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.CartSession(cartCookies, logg))
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(deps.Cart, logg))
				r.Delete("/", controllers.CartClear(deps.Cart, logg))
				r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
				r.Patch("/items/{productId}", controllers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Cart, logg))
			})
			r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimit).Post("/login", controllers.AdminLogin(deps.Auth, adminCookies, logg))
			r.Post("/logout", controllers.AdminLogout(deps.Auth, adminCookies, logg))
			r.Get("/check", controllers.AdminCheck(deps.Auth, logg))
			r.With(middleware.AdminAuth(deps.Auth, logg)).Post("/change-password", controllers.AdminChangePassword(deps.Auth, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(deps.Auth, logg))

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.CategoryList(deps.Categories, logg))
				r.Post("/", controllers.AdminCategoryCreate(deps.Categories, logg))
				r.Get("/{id}", controllers.AdminCategoryGet(deps.Categories, logg))
				r.Put("/{id}", controllers.AdminCategoryUpdate(deps.Categories, logg))
				r.Delete("/{id}", controllers.AdminCategoryDelete(deps.Categories, logg))
			})
			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(deps.Products, logg))
				r.Post("/", controllers.AdminProductCreate(deps.Products, logg))
				r.Put("/{id}", controllers.AdminProductUpdate(deps.Products, logg))
				r.Delete("/{id}", controllers.AdminProductDelete(deps.Products, logg))
				r.Put("/{id}/prices", controllers.AdminProductPrices(deps.Products, logg))
			})
			r.Get("/orders", controllers.AdminOrderList(deps.Orders, logg))
			r.Post("/uploads", controllers.AdminUpload(deps.Uploads, logg))
		})
	})

	return r
}
