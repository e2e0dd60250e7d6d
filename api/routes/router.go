package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/vitrine-backend/api/controllers"
	categorycontrollers "github.com/angelmondragon/vitrine-backend/api/controllers/categories"
	ordercontrollers "github.com/angelmondragon/vitrine-backend/api/controllers/orders"
	"github.com/angelmondragon/vitrine-backend/api/controllers/shipments"
	"github.com/angelmondragon/vitrine-backend/api/controllers/storefront"
	"github.com/angelmondragon/vitrine-backend/api/controllers/zones"
	"github.com/angelmondragon/vitrine-backend/api/middleware"
	"github.com/angelmondragon/vitrine-backend/internal/catalog"
	"github.com/angelmondragon/vitrine-backend/internal/categories"
	"github.com/angelmondragon/vitrine-backend/internal/fulfillment"
	"github.com/angelmondragon/vitrine-backend/internal/orders"
	"github.com/angelmondragon/vitrine-backend/internal/shipping"
	"github.com/angelmondragon/vitrine-backend/internal/stores"
	"github.com/angelmondragon/vitrine-backend/pkg/auth/session"
	"github.com/angelmondragon/vitrine-backend/pkg/config"
	"github.com/angelmondragon/vitrine-backend/pkg/logger"
	"github.com/angelmondragon/vitrine-backend/pkg/metrics"
	"github.com/angelmondragon/vitrine-backend/pkg/redis"
)

// Dependencies is everything the router hands to middleware and controllers.
// Idempotency and Sessions may be nil, which disables those checks.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	ReadyChecks map[string]controllers.Pinger
	Registry    *prometheus.Registry
	Sessions    session.AccessSessionChecker
	Idempotency redis.IdempotencyStore

	Stores        stores.Service
	CarrierConfig stores.CarrierConfigService
	Carrier       shipments.CarrierService
	Shipping      shipping.Service
	Fulfillment   fulfillment.Service
	Categories    categories.Service
	Catalog       catalog.Service
	Orders        orders.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	var registerer prometheus.Registerer
	if deps.Registry != nil {
		registerer = deps.Registry
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(metrics.NewHTTPMetrics(registerer)),
		middleware.CORS(cfg.Storefront.AllowedOrigins),
	)

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.ReadyChecks))
	})

	r.Route("/api/public/v1", func(r chi.Router) {
		r.Post("/melhor-envio/calculate", shipments.PublicCalculate(deps.Carrier, deps.Stores, logg))
	})

	r.Route("/api/storefront/v1", func(r chi.Router) {
		r.Use(middleware.Tenant(deps.Stores, cfg.Storefront.TrustForwardedHost, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, cfg.Redis.IdempotencyTTL, logg))

		r.Get("/categories", storefront.Categories(deps.Categories, logg))
		r.Get("/categories/*", storefront.CategoryByPath(deps.Categories, deps.Catalog, logg))
		r.Post("/shipping/quote", storefront.Quote(deps.Orders, logg))
		r.Post("/orders", storefront.SubmitOrder(deps.Orders, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.StoreContext(logg))
		r.Use(middleware.Idempotency(deps.Idempotency, cfg.Redis.IdempotencyTTL, logg))

		r.Route("/melhor-envio", func(r chi.Router) {
			r.Get("/addresses", shipments.Addresses(deps.Carrier, logg))
			r.Get("/services", shipments.Services(deps.Carrier, logg))
			r.Post("/calculate", shipments.Calculate(deps.Carrier, logg))
			r.Post("/cart", shipments.Cart(deps.Fulfillment, logg))
			r.Post("/checkout", shipments.Checkout(deps.Fulfillment, logg))
			r.Post("/generate", shipments.Generate(deps.Fulfillment, logg))
			r.Post("/print", shipments.Print(deps.Fulfillment, logg))
			r.Post("/cancel", shipments.Cancel(deps.Fulfillment, logg))
			r.Get("/tracking", shipments.Tracking(deps.Fulfillment, logg))
		})

		r.Route("/settings/melhor-envio", func(r chi.Router) {
			r.Get("/", shipments.SettingsGet(deps.CarrierConfig, logg))
			r.With(middleware.RequireSettingsRole(logg)).Put("/", shipments.SettingsUpdate(deps.CarrierConfig, logg))
		})

		r.Route("/shipping/zones", func(r chi.Router) {
			r.Get("/", zones.List(deps.Shipping, logg))
			r.Post("/", zones.Create(deps.Shipping, logg))
			r.Put("/{zoneId}", zones.Update(deps.Shipping, logg))
			r.Delete("/{zoneId}", zones.Delete(deps.Shipping, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categorycontrollers.List(deps.Categories, logg))
			r.Post("/", categorycontrollers.Create(deps.Categories, logg))
			r.Put("/{categoryId}", categorycontrollers.Update(deps.Categories, logg))
			r.Delete("/{categoryId}", categorycontrollers.Delete(deps.Categories, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Put("/{orderId}", ordercontrollers.Update(deps.Orders, logg))
		})
	})

	return r
}
