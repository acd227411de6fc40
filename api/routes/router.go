package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blackbass-labs/blackbass-backend/api/controllers"
	"github.com/blackbass-labs/blackbass-backend/api/middleware"
	cartsvc "github.com/blackbass-labs/blackbass-backend/internal/cart"
	catalogsvc "github.com/blackbass-labs/blackbass-backend/internal/catalog"
	checkoutsvc "github.com/blackbass-labs/blackbass-backend/internal/checkout"
	ordersvc "github.com/blackbass-labs/blackbass-backend/internal/orders"
	paymentsvc "github.com/blackbass-labs/blackbass-backend/internal/payments"
	profilesvc "github.com/blackbass-labs/blackbass-backend/internal/profiles"
	reviewsvc "github.com/blackbass-labs/blackbass-backend/internal/reviews"
	shippingsvc "github.com/blackbass-labs/blackbass-backend/internal/shipping"
	subscriptionsvc "github.com/blackbass-labs/blackbass-backend/internal/subscriptions"
	"github.com/blackbass-labs/blackbass-backend/pkg/config"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
	"github.com/blackbass-labs/blackbass-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DBPinger      interface{ Ping(ctx context.Context) error }
	Redis         *redis.Client
	Cart          cartsvc.Service
	Checkout      checkoutsvc.Service
	Orders        ordersvc.Service
	Payments      paymentsvc.Service
	Reconciler    *paymentsvc.Reconciler
	Subscriptions *subscriptionsvc.Service
	Reviews       *reviewsvc.Service
	Catalog       *catalogsvc.Service
	Profiles      *profilesvc.Resolver
	OAuth         *shippingsvc.OAuthFlow
	Labels        *shippingsvc.LabelService
	Registry      *prometheus.Registry
}

// NewRouter assembles the HTTP surface. The payment webhook is mounted
// before the versioned JSON API so it reads the raw body untouched.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(d.Logger),
		middleware.RequestID(d.Logger),
		middleware.Logging(d.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(d.Config))
		r.Get("/ready", controllers.HealthReady(d.Config, d.Logger, d.DBPinger, d.Redis))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	// Provider webhook: no auth, raw body. Throttled per IP so a
	// misbehaving sender cannot drown the reconciler.
	webhookPolicy := middleware.NewRateLimitPolicy("webhook", d.Config.Webhook.RateLimitWindow, d.Config.Webhook.RateLimit)
	r.With(middleware.RateLimit(webhookPolicy, d.Redis, d.Logger)).
		Post("/api/checkout/webhook", controllers.PaymentWebhook(d.Reconciler, d.Subscriptions, d.Logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(d.Config.JWT, d.Logger))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(d.Cart, d.Logger))
			r.Post("/", controllers.CartAdd(d.Cart, d.Logger))
			r.Delete("/", controllers.CartClear(d.Cart, d.Logger))
			r.Post("/{productId}/increment", controllers.CartIncrement(d.Cart, d.Logger))
			r.Post("/{productId}/decrement", controllers.CartDecrement(d.Cart, d.Logger))
			r.Delete("/{productId}", controllers.CartRemove(d.Cart, d.Logger))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/finalize", controllers.CheckoutFinalize(d.Checkout, d.Logger))
			r.Post("/preference", controllers.CheckoutPreference(d.Payments, d.Logger))
			r.Post("/direct", controllers.CheckoutDirect(d.Payments, d.Logger))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(d.Orders, d.Logger))
			r.Post("/advance-status", controllers.OrderAdvanceStatus(d.Orders, d.Logger))
			r.Get("/{orderId}", controllers.OrderGet(d.Orders, d.Logger))
			r.Get("/{orderId}/shipping-quotes", controllers.QuoteShipping(d.Labels, d.Logger))
			r.Post("/{orderId}/generate-label", controllers.GenerateLabel(d.Labels, d.Logger))
			r.Get("/{orderId}/tracking", controllers.TrackOrder(d.Labels, d.Logger))
		})

		r.Get("/sales", controllers.SalesList(d.Orders, d.Logger))

		r.Route("/shipping/oauth", func(r chi.Router) {
			r.Get("/connect", controllers.ShippingConnect(d.OAuth, d.Logger))
			r.Get("/callback", controllers.ShippingCallback(d.OAuth, d.Logger))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.ProductCreate(d.Catalog, d.Logger))
			r.Get("/mine", controllers.ProductsListMine(d.Catalog, d.Logger))
			r.Route("/{productId}", func(r chi.Router) {
				r.Get("/", controllers.ProductGet(d.Catalog, d.Logger))
				r.Put("/", controllers.ProductUpdate(d.Catalog, d.Logger))
				r.Delete("/", controllers.ProductDelete(d.Catalog, d.Logger))
				r.Get("/reviews", controllers.ReviewsList(d.Reviews, d.Logger))
				r.Post("/reviews", controllers.ReviewCreate(d.Reviews, d.Logger))
			})
		})

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", controllers.ProfileGet(d.Profiles, d.Logger))
			r.Put("/", controllers.ProfileUpsert(d.Profiles, d.Logger))
		})
	})

	return r
}
