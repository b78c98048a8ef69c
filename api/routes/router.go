package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/colchonesapp/api/controllers"
	"github.com/angelmondragon/colchonesapp/api/middleware"
	"github.com/angelmondragon/colchonesapp/internal/checkout"
	"github.com/angelmondragon/colchonesapp/internal/invoices"
	"github.com/angelmondragon/colchonesapp/pkg/config"
	"github.com/angelmondragon/colchonesapp/pkg/logger"
	"github.com/angelmondragon/colchonesapp/pkg/metrics"
)

// Deps bundles what the router wires into controllers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Carts       controllers.CartStore
	Checkout    checkout.Service
	Invoices    invoices.Service
	HTTPMetrics *metrics.HTTPMetrics
	// Gatherer backs /metrics; nil leaves the endpoint off.
	Gatherer prometheus.Gatherer
	// Ready lists the dependencies pinged by /health/ready.
	Ready map[string]controllers.Pinger
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Ready))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.CartSession(logg))
			r.Get("/", controllers.CartGet(deps.Carts, logg))
			r.Put("/payment-method", controllers.CartSetPaymentMethod(deps.Carts, logg))
			r.Post("/items", controllers.CartAddItem(deps.Carts, logg))
			r.Put("/items/{code}", controllers.CartUpdateQuantity(deps.Carts, logg))
			r.Delete("/items/{code}", controllers.CartRemoveItem(deps.Carts, logg))
			r.Post("/checkout", controllers.CartCheckout(deps.Carts, deps.Checkout, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoicesList(deps.Invoices, logg))
			r.Get("/{id}", controllers.InvoiceGet(deps.Invoices, logg))
			r.Get("/{id}/receipt.pdf", controllers.InvoiceReceipt(deps.Invoices, cfg.POS.StoreName, logg))
		})
	})

	return r
}
