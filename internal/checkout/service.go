package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"canteen-connect/internal/domain"
	"canteen-connect/internal/logger"
	"canteen-connect/internal/payment"

	"github.com/google/uuid"
)

// CartAccess is the slice of the cart service the orchestrator needs.
type CartAccess interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

// PaymentOrderCreator registers an order with the external gateway.
type PaymentOrderCreator interface {
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*payment.GatewayOrder, error)
}

// SignatureVerifier confirms a payment completion came from the gateway.
type SignatureVerifier interface {
	Verify(gatewayOrderID, gatewayPaymentID, gatewaySignature string) bool
}

// OrderWriter persists the finalized order atomically with its items.
type OrderWriter interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
}

// OrderEventPublisher announces a persisted order to the live feed.
// Publishing is best-effort; feed delivery never gates the checkout result.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
}

// attempt is one in-flight checkout. It lives in memory only; an abandoned
// payment leaves the attempt parked and nothing is ever persisted for it.
type attempt struct {
	state    domain.CheckoutState
	request  domain.CheckoutRequest
	snapshot *domain.CartSnapshot
	intent   *domain.PaymentIntent
}

func (a *attempt) transition(next domain.CheckoutState) error {
	if !a.state.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, a.state, next)
	}
	a.state = next
	return nil
}

// Service drives the checkout protocol: validate, create the gateway payment
// order, wait for the widget's completion callback, verify the signature,
// then persist. The cart is cleared only on success.
type Service struct {
	carts     CartAccess
	gateway   PaymentOrderCreator
	verifier  SignatureVerifier
	orders    OrderWriter
	publisher OrderEventPublisher
	log       *logger.Logger
	currency  string

	mu        sync.Mutex
	attempts  map[string]*attempt // keyed by gateway order id
	bySession map[string]string   // session id -> gateway order id
}

func NewService(
	carts CartAccess,
	gateway PaymentOrderCreator,
	verifier SignatureVerifier,
	orders OrderWriter,
	publisher OrderEventPublisher,
	log *logger.Logger,
	currency string,
) *Service {
	return &Service{
		carts:     carts,
		gateway:   gateway,
		verifier:  verifier,
		orders:    orders,
		publisher: publisher,
		log:       log,
		currency:  currency,
		attempts:  make(map[string]*attempt),
		bySession: make(map[string]string),
	}
}

// Initiate validates the request, snapshots the cart and creates the gateway
// payment order. It returns the PaymentIntent the client hands to the payment
// widget and parks the attempt until Complete is called with the signed
// result. One attempt per session may be in flight at a time.
func (s *Service) Initiate(ctx context.Context, req *domain.CheckoutRequest) (*domain.PaymentIntent, error) {
	at := &attempt{state: domain.CheckoutStateIdle, request: *req}

	if err := at.transition(domain.CheckoutStateValidating); err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	cart, err := s.carts.Get(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	at.snapshot = snapshotCart(cart, s.currency)

	s.mu.Lock()
	if _, busy := s.bySession[req.SessionID]; busy {
		s.mu.Unlock()
		return nil, ErrCheckoutInProgress
	}
	// reserve the session before the gateway call so a double-click cannot
	// race two payment orders
	s.bySession[req.SessionID] = ""
	s.mu.Unlock()

	intent, err := s.createPaymentOrder(ctx, at)
	if err != nil {
		s.releaseSession(req.SessionID)
		return nil, err
	}

	s.mu.Lock()
	s.attempts[intent.GatewayOrderID] = at
	s.bySession[req.SessionID] = intent.GatewayOrderID
	s.mu.Unlock()

	s.log.Info("checkout_awaiting_payment", "", "payment order created, awaiting widget callback",
		"gateway_order_id", intent.GatewayOrderID,
		"amount_minor", intent.AmountMinor,
	)
	return intent, nil
}

func (s *Service) createPaymentOrder(ctx context.Context, at *attempt) (*domain.PaymentIntent, error) {
	if err := at.transition(domain.CheckoutStateCreatingPaymentOrder); err != nil {
		return nil, err
	}

	receipt := fmt.Sprintf("receipt_%d", time.Now().UnixNano())
	order, err := s.gateway.CreateOrder(ctx, at.snapshot.TotalAmount, s.currency, receipt)
	if err != nil {
		at.state = domain.CheckoutStateFailed
		return nil, fmt.Errorf("%w: %v", ErrPaymentOrderCreation, err)
	}

	if err := at.transition(domain.CheckoutStateAwaitingPayment); err != nil {
		return nil, err
	}

	at.intent = &domain.PaymentIntent{
		GatewayOrderID: order.ID,
		AmountMinor:    order.Amount,
		Currency:       order.Currency,
		Receipt:        receipt,
		Contact:        at.request.Phone,
		CreatedAt:      time.Now(),
	}
	return at.intent, nil
}

// Complete resumes a parked attempt with the widget's signed triple. On a
// verified payment it persists the order and clears the cart; on any failure
// the cart is left untouched for retry.
func (s *Service) Complete(ctx context.Context, completion *domain.PaymentCompletion) (*domain.Order, error) {
	s.mu.Lock()
	at, ok := s.attempts[completion.GatewayOrderID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrUnknownPaymentOrder
	}
	// claim the attempt while holding the lock; racing callbacks for the
	// same gateway order lose here and never reach the verifier
	if err := at.transition(domain.CheckoutStateVerifying); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	if !s.verifier.Verify(completion.GatewayOrderID, completion.GatewayPaymentID, completion.GatewaySignature) {
		s.fail(at, completion.GatewayOrderID)
		s.log.Error("checkout_verification_failed", "", "gateway signature mismatch", nil,
			"gateway_order_id", completion.GatewayOrderID,
		)
		return nil, ErrVerificationFailed
	}

	if err := s.advance(at, domain.CheckoutStatePersisting); err != nil {
		return nil, err
	}

	order := buildOrder(at, completion)
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.fail(at, completion.GatewayOrderID)
		return nil, fmt.Errorf("%w: %v", ErrOrderPersistence, err)
	}

	if err := s.advance(at, domain.CheckoutStateSuccess); err != nil {
		return nil, err
	}

	// the payment has settled; a failed cart clear must not fail the checkout
	if err := s.carts.Clear(ctx, at.request.SessionID); err != nil {
		s.log.Error("checkout_cart_clear_failed", "", "failed to clear cart after checkout", err,
			"session_id", at.request.SessionID,
		)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
			s.log.Error("order_event_publish_failed", "", "failed to publish order.created", err,
				"order_id", order.ID.String(),
			)
		}
	}

	s.forget(at.request.SessionID, completion.GatewayOrderID)
	s.log.Info("checkout_completed", "", "order persisted and cart cleared",
		"order_id", order.ID.String(),
		"total_amount", order.TotalAmount,
	)
	return order, nil
}

// State reports the current state of the session's in-flight attempt, or
// idle when none exists.
func (s *Service) State(sessionID string) domain.CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()

	gatewayOrderID, ok := s.bySession[sessionID]
	if !ok {
		return domain.CheckoutStateIdle
	}
	if at, found := s.attempts[gatewayOrderID]; found {
		return at.state
	}
	return domain.CheckoutStateCreatingPaymentOrder
}

// advance moves a registered attempt forward. Attempt state is always read
// and written under s.mu once the attempt is reachable from the maps.
func (s *Service) advance(at *attempt, next domain.CheckoutState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return at.transition(next)
}

func (s *Service) fail(at *attempt, gatewayOrderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at.state = domain.CheckoutStateFailed
	delete(s.attempts, gatewayOrderID)
	delete(s.bySession, at.request.SessionID)
}

func (s *Service) forget(sessionID, gatewayOrderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, gatewayOrderID)
	delete(s.bySession, sessionID)
}

func (s *Service) releaseSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bySession, sessionID)
}

// snapshotCart freezes unit prices at checkout time. Later menu price changes
// never alter what this attempt charges or records.
func snapshotCart(cart *domain.Cart, currency string) *domain.CartSnapshot {
	snapshot := &domain.CartSnapshot{
		CanteenID:  cart.CanteenID(),
		Lines:      make([]domain.CartSnapshotLine, 0, len(cart.Lines)),
		Currency:   currency,
		CapturedAt: time.Now(),
	}

	var total float64
	for _, line := range cart.Lines {
		subtotal := line.Price * float64(line.Quantity)
		snapshot.Lines = append(snapshot.Lines, domain.CartSnapshotLine{
			ItemID:    line.ItemID,
			ItemName:  line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.Price,
			Subtotal:  subtotal,
		})
		total += subtotal
	}
	snapshot.TotalAmount = total

	return snapshot
}

func buildOrder(at *attempt, completion *domain.PaymentCompletion) *domain.Order {
	order := &domain.Order{
		ID:               uuid.New(),
		UserID:           at.request.UserID,
		CanteenID:        at.snapshot.CanteenID,
		TotalAmount:      at.snapshot.TotalAmount,
		Status:           domain.OrderStatusPending,
		PaymentStatus:    domain.PaymentStatusPaid,
		GatewayOrderID:   completion.GatewayOrderID,
		GatewayPaymentID: completion.GatewayPaymentID,
		GatewaySignature: completion.GatewaySignature,
		CreatedAt:        time.Now(),
	}

	for _, line := range at.snapshot.Lines {
		order.Items = append(order.Items, domain.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			MenuItemID:  line.ItemID,
			ItemName:    line.ItemName,
			Quantity:    line.Quantity,
			PriceAtTime: line.UnitPrice,
		})
	}

	return order
}
