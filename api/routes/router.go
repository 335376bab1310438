package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farhanmajid/bazario-backend/api/controllers"
	"github.com/farhanmajid/bazario-backend/api/middleware"
	authsvc "github.com/farhanmajid/bazario-backend/internal/auth"
	"github.com/farhanmajid/bazario-backend/internal/cart"
	"github.com/farhanmajid/bazario-backend/internal/catalog"
	"github.com/farhanmajid/bazario-backend/internal/companies"
	"github.com/farhanmajid/bazario-backend/internal/invites"
	"github.com/farhanmajid/bazario-backend/internal/orders"
	"github.com/farhanmajid/bazario-backend/internal/users"
	"github.com/farhanmajid/bazario-backend/pkg/auth/session"
	"github.com/farhanmajid/bazario-backend/pkg/config"
	"github.com/farhanmajid/bazario-backend/pkg/db"
	"github.com/farhanmajid/bazario-backend/pkg/logger"
	"github.com/farhanmajid/bazario-backend/pkg/metrics"
	pkgredis "github.com/farhanmajid/bazario-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        *pkgredis.Client
	Sessions     sessionManager
	Registry     *prometheus.Registry
	HTTPMetrics  *metrics.HTTPMetrics
	AuthSvc      authsvc.Service
	UsersSvc     users.Service
	CatalogSvc   catalog.Service
	CompaniesSvc companies.Service
	OrdersSvc    orders.Service
	CartSvc      cart.Service
	InvitesSvc   invites.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)
	if deps.HTTPMetrics != nil {
		r.Use(middleware.Metrics(deps.HTTPMetrics))
	}
	if deps.Redis != nil {
		r.Use(middleware.Idempotency(deps.Redis, logg))
	}

	var cache pkgredis.Pinger
	if deps.Redis != nil {
		cache = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, cache, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/signup", controllers.AuthSignup(deps.AuthSvc, logg))
		r.Post("/login", controllers.AuthLogin(deps.AuthSvc, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthSvc, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).
			Post("/logout", controllers.AuthLogout(deps.AuthSvc, logg))
	})

	// Public catalog and invite redemption.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(deps.CatalogSvc, logg))
		r.Get("/{productID}", controllers.ProductsGet(deps.CatalogSvc, logg))
	})
	r.Get("/api/v1/categories", controllers.CategoriesList(deps.CatalogSvc, logg))
	r.Post("/api/v1/invites/accept/{token}", controllers.InvitesAccept(deps.InvitesSvc, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", controllers.UsersMe(deps.UsersSvc, logg))
			r.Put("/", controllers.UsersUpdateMe(deps.UsersSvc, logg))
			r.Delete("/", controllers.UsersDeleteMe(deps.UsersSvc, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrdersPlace(deps.OrdersSvc, logg))
			r.Get("/", controllers.OrdersListMine(deps.OrdersSvc, logg))
			r.Get("/{orderID}", controllers.OrdersGetMine(deps.OrdersSvc, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.CartSvc, logg))
			r.Get("/items", controllers.CartListItems(deps.CartSvc, logg))
			r.Post("/items", controllers.CartAddItem(deps.CartSvc, logg))
			r.Patch("/items/{itemID}", controllers.CartUpdateItem(deps.CartSvc, logg))
			r.Delete("/items/{itemID}", controllers.CartRemoveItem(deps.CartSvc, logg))
		})

		r.Route("/companies", func(r chi.Router) {
			r.Post("/", controllers.CompaniesCreate(deps.CompaniesSvc, logg))
			r.Get("/", controllers.CompaniesList(deps.CompaniesSvc, logg))
			r.Get("/{companyID}", controllers.CompaniesGet(deps.CompaniesSvc, logg))
		})

		r.Route("/company", func(r chi.Router) {
			r.Use(middleware.RequireCompanyRole(logg))

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.CompanyProductsCreate(deps.CatalogSvc, logg))
				r.Patch("/{productID}", controllers.CompanyProductsUpdate(deps.CatalogSvc, logg))
				r.Delete("/{productID}", controllers.CompanyProductsDelete(deps.CatalogSvc, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.CompanyOrdersList(deps.OrdersSvc, logg))
				r.Get("/{orderID}", controllers.CompanyOrdersGet(deps.OrdersSvc, logg))
				r.Put("/{orderID}/status", controllers.CompanyOrdersUpdateStatus(deps.OrdersSvc, logg))
			})

			r.With(middleware.RequireAdmin(logg)).
				Post("/invites", controllers.InvitesCreate(deps.InvitesSvc, logg))
		})
	})

	return r
}
