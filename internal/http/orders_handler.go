package http

import (
	"context"
	"net/http"
	"time"

	"canteen-connect/internal/logger"
	"canteen-connect/internal/repository"

	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	orders  repository.OrderRepository
	logger  *logger.Logger
	timeout time.Duration
}

func NewOrdersHandler(orders repository.OrderRepository, log *logger.Logger, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		logger:  log,
		timeout: timeout,
	}
}

// ListMine returns the signed-in customer's order history, newest first.
func (h *OrdersHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserID(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "sign in to view orders")
		return
	}

	orders, err := h.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		h.logger.Error("orders_list_failed", getRequestID(r.Context()), "failed to list user orders", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list orders")
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

// ListForCanteen returns a canteen's paid orders with their items for the
// admin order board.
func (h *OrdersHandler) ListForCanteen(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	canteenID := chi.URLParam(r, "canteen_id")
	if canteenID == "" {
		respondError(w, http.StatusBadRequest, "invalid_canteen_id", "canteen_id is required")
		return
	}

	orders, err := h.orders.ListPaidOrdersByCanteen(ctx, canteenID)
	if err != nil {
		h.logger.Error("orders_list_failed", getRequestID(r.Context()), "failed to list canteen orders", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list orders")
		return
	}

	respondJSON(w, http.StatusOK, orders)
}
