package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"canteen-connect/internal/cart"
	"canteen-connect/internal/logger"
	"canteen-connect/internal/repository"

	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	carts   *cart.Service
	menu    repository.MenuRepository
	logger  *logger.Logger
	timeout time.Duration
}

func NewCartHandler(carts *cart.Service, menu repository.MenuRepository, log *logger.Logger, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		menu:    menu,
		logger:  log,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ItemID string `json:"item_id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// CartResponseDTO carries the cart plus the canteen-reset notice the
// storefront shows when switching canteens wiped the previous cart.
type CartResponseDTO struct {
	Cart         interface{} `json:"cart"`
	CanteenReset bool        `json:"canteen_reset,omitempty"`
	Notice       string      `json:"notice,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.carts.Get(ctx, getSessionID(r.Context()))
	if err != nil {
		h.logger.Error("cart_get_failed", getRequestID(r.Context()), "failed to load cart", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load cart")
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{Cart: c})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ItemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id is required")
		return
	}

	item, err := h.menu.GetMenuItem(ctx, req.ItemID)
	if err != nil {
		if errors.Is(err, repository.ErrMenuItemNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "menu item not found")
			return
		}
		h.logger.Error("menu_item_load_failed", getRequestID(r.Context()), "failed to load menu item", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load menu item")
		return
	}

	result, err := h.carts.AddItem(ctx, getSessionID(r.Context()), item)
	if err != nil {
		if errors.Is(err, cart.ErrItemUnavailable) {
			respondError(w, http.StatusConflict, "item_unavailable", "menu item is not available")
			return
		}
		h.logger.Error("cart_add_failed", getRequestID(r.Context()), "failed to add item", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to add item")
		return
	}

	resp := CartResponseDTO{Cart: result.Cart, CanteenReset: result.CanteenReset}
	if result.CanteenReset {
		resp.Notice = "Cart cleared! New canteen selected."
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	c, err := h.carts.UpdateQuantity(ctx, getSessionID(r.Context()), itemID, req.Quantity)
	if err != nil {
		h.logger.Error("cart_update_failed", getRequestID(r.Context()), "failed to update quantity", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update quantity")
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{Cart: c})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "item_id is required")
		return
	}

	c, err := h.carts.RemoveItem(ctx, getSessionID(r.Context()), itemID)
	if err != nil {
		h.logger.Error("cart_remove_failed", getRequestID(r.Context()), "failed to remove item", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to remove item")
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{Cart: c})
}

// SignOut clears the session's cart so a shared device never shows the
// previous user's cart.
func (h *CartHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.Clear(ctx, getSessionID(r.Context())); err != nil {
		h.logger.Error("cart_clear_failed", getRequestID(r.Context()), "failed to clear cart on sign-out", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to clear cart")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
