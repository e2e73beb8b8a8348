package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
)

// statusRank orders the lifecycle; transitions only move forward.
var statusRank = map[OrderStatus]int{
	OrderStatusPending:   0,
	OrderStatusPreparing: 1,
	OrderStatusReady:     2,
	OrderStatusCompleted: 3,
}

func (s OrderStatus) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvanceTo reports whether the lifecycle may move from s to next.
// The progression is monotonic, one step at a time.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	from, okFrom := statusRank[s]
	to, okTo := statusRank[next]
	return okFrom && okTo && to == from+1
}

func (s OrderStatus) String() string {
	return string(s)
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Order is created only after payment verification succeeded. Gateway
// identifiers are retained for audit; status is the only field mutated
// after creation.
type Order struct {
	ID               uuid.UUID     `json:"id"`
	UserID           string        `json:"user_id"`
	CanteenID        string        `json:"canteen_id"`
	TotalAmount      float64       `json:"total_amount"`
	Status           OrderStatus   `json:"status"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	GatewayOrderID   string        `json:"gateway_order_id"`
	GatewayPaymentID string        `json:"gateway_payment_id"`
	GatewaySignature string        `json:"-"`
	Items            []OrderItem   `json:"items,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

// OrderItem freezes the unit price at purchase time. Later catalog price
// changes never alter historical orders.
type OrderItem struct {
	ID          uuid.UUID `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	MenuItemID  string    `json:"menu_item_id"`
	ItemName    string    `json:"item_name,omitempty"`
	Quantity    int       `json:"quantity"`
	PriceAtTime float64   `json:"price_at_time"`
	CreatedAt   time.Time `json:"created_at"`
}
