package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the storefront and admin routes. Cart and checkout routes
// require the client session key; admin routes are expected to sit behind the
// deployment's admin auth layer.
func NewRouter(
	cartHandler *CartHandler,
	checkoutHandler *CheckoutHandler,
	paymentHandler *PaymentHandler,
	ordersHandler *OrdersHandler,
	analyticsHandler *AnalyticsHandler,
	menuHandler *MenuHandler,
	feedHandler *FeedHandler,
	requestTimeout time.Duration,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Compress(5))
	r.Use(AuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Get("/canteens", menuHandler.ListCanteens)
			r.Get("/canteens/{canteen_id}/menu", menuHandler.ListMenu)

			r.Post("/payment/verify", paymentHandler.Verify)

			r.Group(func(r chi.Router) {
				r.Use(SessionMiddleware)

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", cartHandler.GetCart)
					r.Post("/items", cartHandler.AddItem)
					r.Put("/items/{item_id}", cartHandler.UpdateQuantity)
					r.Delete("/items/{item_id}", cartHandler.RemoveItem)
				})
				r.Post("/session/signout", cartHandler.SignOut)

				r.Route("/checkout", func(r chi.Router) {
					r.Post("/", checkoutHandler.Initiate)
					r.Post("/complete", checkoutHandler.Complete)
					r.Get("/state", checkoutHandler.State)
				})
			})

			r.Get("/orders", ordersHandler.ListMine)

			r.Route("/admin/canteens/{canteen_id}", func(r chi.Router) {
				r.Get("/orders", ordersHandler.ListForCanteen)
				r.Get("/analytics", analyticsHandler.Summary)
			})
		})

		// long-lived SSE stream; the request timeout does not apply here
		r.Get("/admin/canteens/{canteen_id}/orders/feed", feedHandler.Stream)
	})

	return r
}
