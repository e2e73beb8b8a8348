package http

import (
	"context"
	"net/http"
	"time"

	"canteen-connect/internal/logger"
	"canteen-connect/internal/repository"

	"github.com/go-chi/chi/v5"
)

// MenuHandler serves the read-only catalog: canteens and their available
// menu items.
type MenuHandler struct {
	menu    repository.MenuRepository
	logger  *logger.Logger
	timeout time.Duration
}

func NewMenuHandler(menu repository.MenuRepository, log *logger.Logger, timeout time.Duration) *MenuHandler {
	return &MenuHandler{
		menu:    menu,
		logger:  log,
		timeout: timeout,
	}
}

func (h *MenuHandler) ListCanteens(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	canteens, err := h.menu.ListCanteens(ctx)
	if err != nil {
		h.logger.Error("canteens_list_failed", getRequestID(r.Context()), "failed to list canteens", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list canteens")
		return
	}

	respondJSON(w, http.StatusOK, canteens)
}

func (h *MenuHandler) ListMenu(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	canteenID := chi.URLParam(r, "canteen_id")
	if canteenID == "" {
		respondError(w, http.StatusBadRequest, "invalid_canteen_id", "canteen_id is required")
		return
	}

	items, err := h.menu.ListMenuItems(ctx, canteenID)
	if err != nil {
		h.logger.Error("menu_list_failed", getRequestID(r.Context()), "failed to list menu items", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list menu")
		return
	}

	respondJSON(w, http.StatusOK, items)
}
