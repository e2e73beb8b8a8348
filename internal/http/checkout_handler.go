package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"canteen-connect/internal/checkout"
	"canteen-connect/internal/domain"
	"canteen-connect/internal/logger"
)

type CheckoutHandler struct {
	service *checkout.Service
	logger  *logger.Logger
	timeout time.Duration
}

func NewCheckoutHandler(service *checkout.Service, log *logger.Logger, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  log,
		timeout: timeout,
	}
}

type InitiateCheckoutDTO struct {
	Phone       string `json:"phone"`
	Delivery    string `json:"delivery_mode"`
	TableNumber string `json:"table_number,omitempty"`
}

type CompleteCheckoutDTO struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	GatewaySignature string `json:"gateway_signature"`
}

// Initiate validates the checkout form and creates the gateway payment
// order. The response is the intent the client feeds to the payment widget.
func (h *CheckoutHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	requestID := getRequestID(r.Context())
	userID := getUserID(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "sign in to place an order")
		return
	}

	var dto InitiateCheckoutDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	req := &domain.CheckoutRequest{
		SessionID:   getSessionID(r.Context()),
		UserID:      userID,
		Phone:       dto.Phone,
		Delivery:    domain.DeliveryMode(dto.Delivery),
		TableNumber: dto.TableNumber,
	}

	intent, err := h.service.Initiate(ctx, req)
	if err != nil {
		h.writeCheckoutError(w, requestID, err)
		return
	}

	respondJSON(w, http.StatusCreated, intent)
}

// Complete receives the payment widget's signed triple, verifies it and
// persists the order.
func (h *CheckoutHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	requestID := getRequestID(r.Context())

	var dto CompleteCheckoutDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if dto.GatewayOrderID == "" || dto.GatewayPaymentID == "" || dto.GatewaySignature == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "gateway order id, payment id and signature are required")
		return
	}

	order, err := h.service.Complete(ctx, &domain.PaymentCompletion{
		GatewayOrderID:   dto.GatewayOrderID,
		GatewayPaymentID: dto.GatewayPaymentID,
		GatewaySignature: dto.GatewaySignature,
	})
	if err != nil {
		h.writeCheckoutError(w, requestID, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// State reports the session's in-flight checkout state, letting the client
// disable the pay button while an attempt is pending.
func (h *CheckoutHandler) State(w http.ResponseWriter, r *http.Request) {
	state := h.service.State(getSessionID(r.Context()))
	respondJSON(w, http.StatusOK, map[string]string{"state": state.String()})
}

func (h *CheckoutHandler) writeCheckoutError(w http.ResponseWriter, requestID string, err error) {
	var validationErr checkout.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, "validation_failed", validationErr.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		respondError(w, http.StatusConflict, "checkout_in_progress", "a checkout attempt is already in flight")
	case errors.Is(err, checkout.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "completion_in_progress", "this payment is already being processed")
	case errors.Is(err, checkout.ErrPaymentOrderCreation):
		h.logger.Error("payment_order_failed", requestID, "gateway order creation failed", err)
		respondError(w, http.StatusBadGateway, "gateway_error", "order creation failed")
	case errors.Is(err, checkout.ErrVerificationFailed):
		respondError(w, http.StatusBadRequest, "verification_failed", "payment verification failed")
	case errors.Is(err, checkout.ErrUnknownPaymentOrder):
		respondError(w, http.StatusNotFound, "not_found", "no pending checkout for this payment order")
	default:
		h.logger.Error("checkout_failed", requestID, "checkout attempt failed", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "checkout failed")
	}
}
