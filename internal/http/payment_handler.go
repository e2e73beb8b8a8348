package http

import (
	"encoding/json"
	"net/http"

	"canteen-connect/internal/checkout"
)

// PaymentHandler exposes standalone signature verification. The response
// contract is exact: anything other than {"status":"ok"} means rejection.
type PaymentHandler struct {
	verifier checkout.SignatureVerifier
}

func NewPaymentHandler(verifier checkout.SignatureVerifier) *PaymentHandler {
	return &PaymentHandler{verifier: verifier}
}

type VerifyRequestDTO struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	GatewaySignature string `json:"gateway_signature"`
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"status": "failed"})
		return
	}

	if h.verifier.Verify(req.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	respondJSON(w, http.StatusBadRequest, map[string]string{"status": "failed"})
}
