package domain

import "time"

type CheckoutState string

const (
	CheckoutStateIdle                 CheckoutState = "idle"
	CheckoutStateValidating           CheckoutState = "validating"
	CheckoutStateCreatingPaymentOrder CheckoutState = "creating_payment_order"
	CheckoutStateAwaitingPayment      CheckoutState = "awaiting_payment"
	CheckoutStateVerifying            CheckoutState = "verifying"
	CheckoutStatePersisting           CheckoutState = "persisting"
	CheckoutStateSuccess              CheckoutState = "success"
	CheckoutStateFailed               CheckoutState = "failed"
)

// forward lists the single legal forward transition out of each state.
var forward = map[CheckoutState]CheckoutState{
	CheckoutStateIdle:                 CheckoutStateValidating,
	CheckoutStateValidating:           CheckoutStateCreatingPaymentOrder,
	CheckoutStateCreatingPaymentOrder: CheckoutStateAwaitingPayment,
	CheckoutStateAwaitingPayment:      CheckoutStateVerifying,
	CheckoutStateVerifying:            CheckoutStatePersisting,
	CheckoutStatePersisting:           CheckoutStateSuccess,
}

// CanTransitionTo reports whether s may move to next. Any non-terminal state
// may fail; forward movement follows the checkout protocol strictly.
func (s CheckoutState) CanTransitionTo(next CheckoutState) bool {
	if s.IsTerminal() {
		return false
	}
	if next == CheckoutStateFailed {
		return true
	}
	return forward[s] == next
}

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateSuccess || s == CheckoutStateFailed
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}

type DeliveryMode string

const (
	DeliveryDineIn   DeliveryMode = "dine-in"
	DeliveryTakeaway DeliveryMode = "takeaway"
)

// CheckoutRequest carries the contact and delivery fields collected before
// payment starts.
type CheckoutRequest struct {
	SessionID   string       `json:"session_id"`
	UserID      string       `json:"user_id"`
	Phone       string       `json:"phone"`
	Delivery    DeliveryMode `json:"delivery_mode"`
	TableNumber string       `json:"table_number,omitempty"`
}

// PaymentIntent is the ephemeral per-attempt record handed to the payment
// widget. It is never persisted durably.
type PaymentIntent struct {
	GatewayOrderID string    `json:"gateway_order_id"`
	AmountMinor    int64     `json:"amount"`
	Currency       string    `json:"currency"`
	Receipt        string    `json:"receipt"`
	Contact        string    `json:"contact"`
	CreatedAt      time.Time `json:"created_at"`
}

// PaymentCompletion is the signed triple reported by the gateway widget when
// the customer finishes paying.
type PaymentCompletion struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	GatewaySignature string `json:"gateway_signature"`
}

// CartSnapshotLine captures a cart line with its price frozen at checkout time.
type CartSnapshotLine struct {
	ItemID    string  `json:"item_id"`
	ItemName  string  `json:"item_name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

// CartSnapshot is the full cart state captured when checkout begins.
type CartSnapshot struct {
	CanteenID   string             `json:"canteen_id"`
	Lines       []CartSnapshotLine `json:"lines"`
	TotalAmount float64            `json:"total_amount"`
	Currency    string             `json:"currency"`
	CapturedAt  time.Time          `json:"captured_at"`
}
