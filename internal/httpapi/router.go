// Package httpapi assembles the storefront HTTP API.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/checkout"
	"github.com/joao-fontenele/storefront/internal/orders"
)

type Deps struct {
	Checkout *checkout.Handler
	Orders   *orders.Handler
	// Cart routes are not mounted when Cart is nil.
	Cart    *CartHandler
	Auth    *auth.Authenticator
	Metrics http.Handler
	Logger  *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(d.Logger))
	r.Use(Recover(d.Logger))
	r.Use(RouteSpan)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/product/braintree", func(r chi.Router) {
			r.Get("/token", d.Checkout.HandleToken)
			r.Post("/token", d.Checkout.HandleToken)
			r.With(d.Auth.RequireSignIn).Post("/payment", d.Checkout.HandlePayment)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Use(d.Auth.RequireSignIn)
			r.Get("/orders", d.Orders.HandleListMine)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Get("/all-orders", d.Orders.HandleListAll)
				r.Put("/order-status/{orderId}", d.Orders.HandleUpdateStatus)
			})
		})

		if d.Cart != nil {
			r.Route("/cart", func(r chi.Router) {
				r.Use(d.Auth.RequireSignIn)
				r.Get("/", d.Cart.HandleGet)
				r.Delete("/", d.Cart.HandleClear)
				r.Post("/items", d.Cart.HandleAdd)
				r.Delete("/items/{productId}", d.Cart.HandleRemove)
			})
		}
	})

	return otelhttp.NewHandler(r, "storefront-api",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/metrics"
		}),
	)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
