package cart

import (
	"context"
	"sync"
	"testing"

	"canteen-connect/internal/cache"
	"canteen-connect/internal/domain"
	"canteen-connect/internal/logger"
	"canteen-connect/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCache is an in-memory CartCache for tests.
type fakeCache struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
}

func newFakeCache() *fakeCache {
	return &fakeCache{carts: make(map[string]*domain.Cart)}
}

func (f *fakeCache) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.carts[sessionID]; ok {
		return c, nil
	}
	return nil, cache.ErrCacheMiss
}

func (f *fakeCache) Set(_ context.Context, sessionID string, cart *domain.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[sessionID] = cart
	return nil
}

func (f *fakeCache) Delete(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, sessionID)
	return nil
}

func newTestService() *Service {
	return NewService(repository.NewMemoryCartRepository(), newFakeCache(), logger.New("cart-test"))
}

func menuItem(id, canteenID string, price float64) *domain.MenuItem {
	return &domain.MenuItem{
		ID:          id,
		Name:        "item-" + id,
		Category:    "snacks",
		Price:       price,
		IsAvailable: true,
		CanteenID:   canteenID,
	}
}

func TestAddItem_NewLine(t *testing.T) {
	svc := newTestService()

	result, err := svc.AddItem(context.Background(), "s1", menuItem("a", "canteen-1", 50))

	require.NoError(t, err)
	assert.False(t, result.CanteenReset)
	require.Len(t, result.Cart.Lines, 1)
	assert.Equal(t, 1, result.Cart.Lines[0].Quantity)
	assert.Equal(t, 50.0, result.Cart.Lines[0].Price)
}

func TestAddItem_SameItemTwiceMergesQuantity(t *testing.T) {
	svc := newTestService()
	item := menuItem("a", "canteen-1", 50)

	_, err := svc.AddItem(context.Background(), "s1", item)
	require.NoError(t, err)
	result, err := svc.AddItem(context.Background(), "s1", item)
	require.NoError(t, err)

	require.Len(t, result.Cart.Lines, 1, "repeated adds must merge, not duplicate")
	assert.Equal(t, 2, result.Cart.Lines[0].Quantity)
}

func TestAddItem_DifferentCanteenResetsCart(t *testing.T) {
	svc := newTestService()

	_, err := svc.AddItem(context.Background(), "s1", menuItem("a", "canteen-1", 50))
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), "s1", menuItem("b", "canteen-1", 30))
	require.NoError(t, err)

	result, err := svc.AddItem(context.Background(), "s1", menuItem("x", "canteen-2", 80))
	require.NoError(t, err)

	assert.True(t, result.CanteenReset)
	require.Len(t, result.Cart.Lines, 1, "cross-canteen add must replace the whole cart")
	assert.Equal(t, "x", result.Cart.Lines[0].ItemID)
	assert.Equal(t, 1, result.Cart.Lines[0].Quantity)
	assert.Equal(t, "canteen-2", result.Cart.CanteenID())
}

func TestAddItem_Unavailable(t *testing.T) {
	svc := newTestService()
	item := menuItem("a", "canteen-1", 50)
	item.IsAvailable = false

	_, err := svc.AddItem(context.Background(), "s1", item)

	assert.ErrorIs(t, err, ErrItemUnavailable)
}

func TestUpdateQuantity_SetsValue(t *testing.T) {
	svc := newTestService()
	_, err := svc.AddItem(context.Background(), "s1", menuItem("a", "canteen-1", 50))
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(context.Background(), "s1", "a", 7)

	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 7, cart.Lines[0].Quantity)
}

func TestUpdateQuantity_ZeroAndNegativeRemoveLine(t *testing.T) {
	for _, quantity := range []int{0, -1} {
		svc := newTestService()
		_, err := svc.AddItem(context.Background(), "s1", menuItem("a", "canteen-1", 50))
		require.NoError(t, err)

		cart, err := svc.UpdateQuantity(context.Background(), "s1", "a", quantity)

		require.NoError(t, err)
		assert.Empty(t, cart.Lines, "quantity %d must remove the line", quantity)
	}
}

func TestUpdateQuantity_AbsentItemIsNoop(t *testing.T) {
	svc := newTestService()
	_, err := svc.AddItem(context.Background(), "s1", menuItem("a", "canteen-1", 50))
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(context.Background(), "s1", "nope", 3)

	require.NoError(t, err)
	assert.Len(t, cart.Lines, 1)
}

func TestRemoveItem(t *testing.T) {
	svc := newTestService()
	_, err := svc.AddItem(context.Background(), "s1", menuItem("a", "canteen-1", 50))
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), "s1", menuItem("b", "canteen-1", 20))
	require.NoError(t, err)

	cart, err := svc.RemoveItem(context.Background(), "s1", "a")

	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "b", cart.Lines[0].ItemID)

	// removing again is a no-op
	cart, err = svc.RemoveItem(context.Background(), "s1", "a")
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 1)
}

func TestClear(t *testing.T) {
	svc := newTestService()
	_, err := svc.AddItem(context.Background(), "s1", menuItem("a", "canteen-1", 50))
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), "s1"))

	cart, err := svc.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestClear_EmptySessionIsNoop(t *testing.T) {
	svc := newTestService()

	assert.NoError(t, svc.Clear(context.Background(), "never-seen"))
}

func TestGet_UnknownSessionReturnsEmptyCart(t *testing.T) {
	svc := newTestService()

	cart, err := svc.Get(context.Background(), "fresh")

	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, "fresh", cart.SessionID)
	assert.Equal(t, "", cart.CanteenID())
}

func TestCartTotal(t *testing.T) {
	svc := newTestService()
	_, err := svc.AddItem(context.Background(), "s1", menuItem("a", "canteen-1", 100))
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), "s1", menuItem("a", "canteen-1", 100))
	require.NoError(t, err)
	result, err := svc.AddItem(context.Background(), "s1", menuItem("b", "canteen-1", 50))
	require.NoError(t, err)

	assert.Equal(t, 250.0, result.Cart.Total())
}
