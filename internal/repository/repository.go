package repository

import (
	"context"
	"errors"
	"time"

	"canteen-connect/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrItemNotFound     = errors.New("item not found in cart")
	ErrOrderNotFound    = errors.New("order not found")
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrDuplicatePayment = errors.New("order already exists for this payment")
)

// CartRepository defines the interface for cart persistence.
// Consumers define this interface, not the MongoDB implementation.
type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, sessionID string) error
}

// OrderRepository persists finalized orders. CreateOrder writes the order and
// all of its items in one transaction; either everything lands or nothing does.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	ListPaidOrdersByCanteen(ctx context.Context, canteenID string) ([]*domain.Order, error)

	PaidOrderTotals(ctx context.Context, canteenID string, from, to time.Time) ([]float64, error)
	ItemQuantities(ctx context.Context, canteenID string, from, to time.Time) ([]ItemQuantity, error)
}

// ItemQuantity is one row of the order_items/menu_items join used by the
// analytics projection, in order-of-first-purchase.
type ItemQuantity struct {
	Name     string
	Quantity int
}

// MenuRepository reads the catalog. The storefront has no write path to it.
type MenuRepository interface {
	ListCanteens(ctx context.Context) ([]*domain.Canteen, error)
	ListMenuItems(ctx context.Context, canteenID string) ([]*domain.MenuItem, error)
	GetMenuItem(ctx context.Context, itemID string) (*domain.MenuItem, error)
}
