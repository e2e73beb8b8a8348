package repository

import (
	"context"
	"sync"
	"time"

	"canteen-connect/internal/domain"
)

// MemoryCartRepository implements CartRepository with in-memory storage.
// Used by tests and local development without MongoDB.
type MemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{carts: make(map[string]*domain.Cart)}
}

func (m *MemoryCartRepository) GetCart(_ context.Context, sessionID string) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cart, ok := m.carts[sessionID]
	if !ok {
		return nil, ErrCartNotFound
	}

	cp := *cart
	cp.Lines = append([]domain.CartLine(nil), cart.Lines...)
	return &cp, nil
}

func (m *MemoryCartRepository) UpsertCart(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now

	cp := *cart
	cp.Lines = append([]domain.CartLine(nil), cart.Lines...)
	m.carts[cart.SessionID] = &cp
	return nil
}

func (m *MemoryCartRepository) DeleteCart(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.carts[sessionID]; !ok {
		return ErrCartNotFound
	}
	delete(m.carts, sessionID)
	return nil
}
