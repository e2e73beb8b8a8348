package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrCheckoutInProgress   = errors.New("a checkout attempt is already in flight for this session")
	ErrUnknownPaymentOrder  = errors.New("no pending checkout for this payment order")
	ErrVerificationFailed   = errors.New("payment verification failed")
	ErrPaymentOrderCreation = errors.New("payment order creation failed")
	ErrOrderPersistence     = errors.New("order persistence failed")
	ErrIllegalTransition    = errors.New("illegal checkout state transition")
)

// ValidationError reports a bad contact or delivery field. No network call is
// made when validation fails.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
