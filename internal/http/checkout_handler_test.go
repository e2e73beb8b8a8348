package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"canteen-connect/internal/checkout"
	"canteen-connect/internal/domain"
	"canteen-connect/internal/logger"
	"canteen-connect/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCarts struct {
	cart    *domain.Cart
	cleared []string
}

func (s *stubCarts) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	if s.cart == nil {
		return &domain.Cart{SessionID: sessionID}, nil
	}
	return s.cart, nil
}

func (s *stubCarts) Clear(_ context.Context, sessionID string) error {
	s.cleared = append(s.cleared, sessionID)
	return nil
}

type stubGateway struct{}

func (stubGateway) CreateOrder(_ context.Context, amount float64, currency, receipt string) (*payment.GatewayOrder, error) {
	return &payment.GatewayOrder{
		ID:       "gw_order_test",
		Amount:   payment.MinorUnits(amount),
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

type stubVerifier struct{ ok bool }

func (v stubVerifier) Verify(_, _, _ string) bool { return v.ok }

// blockingVerifier parks verification until released, so a test can inject a
// second callback while the first is still being processed.
type blockingVerifier struct {
	entered chan struct{}
	release chan struct{}
}

func (v *blockingVerifier) Verify(_, _, _ string) bool {
	v.entered <- struct{}{}
	<-v.release
	return true
}

type stubOrders struct{ created *domain.Order }

func (s *stubOrders) CreateOrder(_ context.Context, order *domain.Order) error {
	s.created = order
	return nil
}

func newCheckoutHandler(carts *stubCarts, verified bool) *CheckoutHandler {
	svc := checkout.NewService(
		carts,
		stubGateway{},
		stubVerifier{ok: verified},
		&stubOrders{},
		nil,
		logger.New("checkout-handler-test"),
		"INR",
	)
	return NewCheckoutHandler(svc, logger.New("checkout-handler-test"), 5*time.Second)
}

func sessionCart() *stubCarts {
	return &stubCarts{cart: &domain.Cart{
		SessionID: "s1",
		Lines: []domain.CartLine{
			{ItemID: "item-a", Name: "Masala Dosa", Price: 60, CanteenID: "canteen-1", Quantity: 2},
		},
	}}
}

func checkoutRequest(t *testing.T, method, target, body, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	ctx := context.WithValue(req.Context(), "session_id", "s1")
	if userID != "" {
		ctx = context.WithValue(ctx, "user_id", userID)
	}
	return req.WithContext(ctx)
}

func TestInitiate_RequiresSignIn(t *testing.T) {
	h := newCheckoutHandler(sessionCart(), true)

	req := checkoutRequest(t, http.MethodPost, "/checkout", `{"phone":"9876543210","delivery_mode":"takeaway"}`, "")
	rec := httptest.NewRecorder()
	h.Initiate(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestInitiate_ValidationFailure(t *testing.T) {
	h := newCheckoutHandler(sessionCart(), true)

	req := checkoutRequest(t, http.MethodPost, "/checkout", `{"phone":"12345","delivery_mode":"takeaway"}`, "user-1")
	rec := httptest.NewRecorder()
	h.Initiate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_failed")
}

func TestInitiate_EmptyCart(t *testing.T) {
	h := newCheckoutHandler(&stubCarts{}, true)

	req := checkoutRequest(t, http.MethodPost, "/checkout", `{"phone":"9876543210","delivery_mode":"takeaway"}`, "user-1")
	rec := httptest.NewRecorder()
	h.Initiate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "empty_cart")
}

func TestInitiateAndComplete_HappyPath(t *testing.T) {
	carts := sessionCart()
	h := newCheckoutHandler(carts, true)

	rec := httptest.NewRecorder()
	h.Initiate(rec, checkoutRequest(t, http.MethodPost, "/checkout",
		`{"phone":"9876543210","delivery_mode":"dine-in","table_number":"7"}`, "user-1"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var intent domain.PaymentIntent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &intent))
	assert.Equal(t, "gw_order_test", intent.GatewayOrderID)
	assert.Equal(t, int64(12000), intent.AmountMinor)
	assert.Equal(t, "INR", intent.Currency)

	rec = httptest.NewRecorder()
	h.Complete(rec, checkoutRequest(t, http.MethodPost, "/checkout/complete",
		`{"gateway_order_id":"gw_order_test","gateway_payment_id":"pay_1","gateway_signature":"sig"}`, "user-1"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var order domain.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, 120.0, order.TotalAmount)
	assert.Equal(t, domain.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, []string{"s1"}, carts.cleared)
}

func TestComplete_MissingFields(t *testing.T) {
	h := newCheckoutHandler(sessionCart(), true)

	req := checkoutRequest(t, http.MethodPost, "/checkout/complete", `{"gateway_order_id":"gw_order_test"}`, "user-1")
	rec := httptest.NewRecorder()
	h.Complete(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request")
}

func TestComplete_UnknownOrder(t *testing.T) {
	h := newCheckoutHandler(sessionCart(), true)

	req := checkoutRequest(t, http.MethodPost, "/checkout/complete",
		`{"gateway_order_id":"never-created","gateway_payment_id":"pay_1","gateway_signature":"sig"}`, "user-1")
	rec := httptest.NewRecorder()
	h.Complete(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestComplete_VerificationFailure(t *testing.T) {
	carts := sessionCart()
	h := newCheckoutHandler(carts, false)

	rec := httptest.NewRecorder()
	h.Initiate(rec, checkoutRequest(t, http.MethodPost, "/checkout",
		`{"phone":"9876543210","delivery_mode":"takeaway"}`, "user-1"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.Complete(rec, checkoutRequest(t, http.MethodPost, "/checkout/complete",
		`{"gateway_order_id":"gw_order_test","gateway_payment_id":"pay_1","gateway_signature":"forged"}`, "user-1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "verification_failed")
	assert.Empty(t, carts.cleared)
}

func TestComplete_ConcurrentCallbackConflict(t *testing.T) {
	carts := sessionCart()
	verifier := &blockingVerifier{entered: make(chan struct{}), release: make(chan struct{})}
	svc := checkout.NewService(carts, stubGateway{}, verifier, &stubOrders{}, nil,
		logger.New("checkout-handler-test"), "INR")
	h := NewCheckoutHandler(svc, logger.New("checkout-handler-test"), 5*time.Second)

	rec := httptest.NewRecorder()
	h.Initiate(rec, checkoutRequest(t, http.MethodPost, "/checkout",
		`{"phone":"9876543210","delivery_mode":"takeaway"}`, "user-1"))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := `{"gateway_order_id":"gw_order_test","gateway_payment_id":"pay_1","gateway_signature":"sig"}`

	first := make(chan *httptest.ResponseRecorder)
	go func() {
		firstRec := httptest.NewRecorder()
		h.Complete(firstRec, checkoutRequest(t, http.MethodPost, "/checkout/complete", body, "user-1"))
		first <- firstRec
	}()
	<-verifier.entered // the first callback now holds the attempt

	rec = httptest.NewRecorder()
	h.Complete(rec, checkoutRequest(t, http.MethodPost, "/checkout/complete", body, "user-1"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "completion_in_progress")

	close(verifier.release)
	assert.Equal(t, http.StatusCreated, (<-first).Code)
}

func TestState_ReflectsAttemptLifecycle(t *testing.T) {
	h := newCheckoutHandler(sessionCart(), true)

	rec := httptest.NewRecorder()
	h.State(rec, checkoutRequest(t, http.MethodGet, "/checkout/state", "", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"state":"idle"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Initiate(rec, checkoutRequest(t, http.MethodPost, "/checkout",
		`{"phone":"9876543210","delivery_mode":"takeaway"}`, "user-1"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.State(rec, checkoutRequest(t, http.MethodGet, "/checkout/state", "", ""))
	assert.JSONEq(t, `{"state":"awaiting_payment"}`, rec.Body.String())
}
