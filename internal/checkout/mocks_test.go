package checkout

import (
	"context"
	"errors"
	"time"

	"canteen-connect/internal/domain"
	"canteen-connect/internal/payment"
)

// MockCartAccess implements CartAccess for testing.
type MockCartAccess struct {
	Cart     *domain.Cart
	GetErr   error
	ClearErr error
	Cleared  []string
}

func (m *MockCartAccess) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.Cart == nil {
		return &domain.Cart{SessionID: sessionID}, nil
	}
	return m.Cart, nil
}

func (m *MockCartAccess) Clear(_ context.Context, sessionID string) error {
	m.Cleared = append(m.Cleared, sessionID)
	return m.ClearErr
}

// MockGateway implements PaymentOrderCreator for testing.
type MockGateway struct {
	Order *payment.GatewayOrder
	Err   error
	Calls int
}

func (m *MockGateway) CreateOrder(_ context.Context, amount float64, currency, receipt string) (*payment.GatewayOrder, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Order != nil {
		return m.Order, nil
	}
	return &payment.GatewayOrder{
		ID:       "gw_order_1",
		Amount:   payment.MinorUnits(amount),
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

// MockVerifier implements SignatureVerifier for testing.
type MockVerifier struct {
	OK bool
}

func (m *MockVerifier) Verify(_, _, _ string) bool {
	return m.OK
}

// SlowVerifier accepts everything after a delay, widening the window in
// which racing callbacks overlap.
type SlowVerifier struct {
	Delay time.Duration
}

func (v SlowVerifier) Verify(_, _, _ string) bool {
	time.Sleep(v.Delay)
	return true
}

// MockOrderWriter implements OrderWriter and captures the persisted order.
type MockOrderWriter struct {
	Err     error
	Created *domain.Order
}

func (m *MockOrderWriter) CreateOrder(_ context.Context, order *domain.Order) error {
	if m.Err != nil {
		return m.Err
	}
	m.Created = order
	return nil
}

// MockPublisher implements OrderEventPublisher and captures published orders.
type MockPublisher struct {
	Err       error
	Published []*domain.Order
}

func (m *MockPublisher) PublishOrderCreated(_ context.Context, order *domain.Order) error {
	if m.Err != nil {
		return m.Err
	}
	m.Published = append(m.Published, order)
	return nil
}

var errBoom = errors.New("boom")
