package httpapi

import (
	"net/http"

	"mebelin-be/internal/cart"
	"mebelin-be/internal/checkout"
	"mebelin-be/internal/logger"
	"mebelin-be/internal/middleware"
	"mebelin-be/internal/order"

	"github.com/go-chi/chi/v5"
)

// NewRouter wires the public storefront surface and the admin surface.
func NewRouter(
	cartSvc cart.Service,
	checkoutSvc checkout.Service,
	orderSvc order.Service,
	jwtSecret string,
) http.Handler {
	cartHandler := NewCartHandler(cartSvc)
	checkoutHandler := NewCheckoutHandler(checkoutSvc)
	orderHandler := NewOrderHandler(orderSvc)
	adminHandler := NewAdminOrderHandler(orderSvc)

	r := chi.NewRouter()

	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.ActorMiddleware(jwtSecret))
	r.Use(middleware.RateLimitMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.Get)
			r.Delete("/", cartHandler.Clear)
			r.Post("/items", cartHandler.AddItem)
			r.Patch("/items/{productID}", cartHandler.UpdateItem)
			r.Delete("/items/{productID}", cartHandler.RemoveItem)
			r.Post("/merge", cartHandler.Merge)
		})

		r.Post("/checkout", checkoutHandler.Checkout)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orderHandler.List)
			r.Get("/{orderID}", orderHandler.Get)
			r.Get("/{orderID}/instructions", orderHandler.Instructions)
			r.Post("/{orderID}/cancel", orderHandler.Cancel)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/orders", adminHandler.List)
			r.Get("/orders/{orderID}", adminHandler.Get)
			r.Patch("/orders/{orderID}", adminHandler.Update)
		})
	})

	return r
}
