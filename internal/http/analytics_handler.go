package http

import (
	"context"
	"net/http"
	"time"

	"canteen-connect/internal/analytics"
	"canteen-connect/internal/domain"
	"canteen-connect/internal/logger"

	"github.com/go-chi/chi/v5"
)

type AnalyticsHandler struct {
	service *analytics.Service
	logger  *logger.Logger
	timeout time.Duration
}

func NewAnalyticsHandler(service *analytics.Service, log *logger.Logger, timeout time.Duration) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  log,
		timeout: timeout,
	}
}

// Summary serves the admin dashboard numbers for one canteen and window.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	canteenID := chi.URLParam(r, "canteen_id")
	if canteenID == "" {
		respondError(w, http.StatusBadRequest, "invalid_canteen_id", "canteen_id is required")
		return
	}

	window := domain.AnalyticsWindow(r.URL.Query().Get("window"))
	if window == "" {
		window = domain.WindowToday
	}
	if !window.IsValid() {
		respondError(w, http.StatusBadRequest, "invalid_window", "window must be today, week or month")
		return
	}

	summary, err := h.service.Summary(ctx, canteenID, window)
	if err != nil {
		h.logger.Error("analytics_failed", getRequestID(r.Context()), "failed to compute analytics summary", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to compute analytics")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
