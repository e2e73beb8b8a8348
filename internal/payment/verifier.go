package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verifier checks that a payment confirmation really came from the gateway.
// The gateway signs "orderID|paymentID" with the shared secret; anyone
// without the secret cannot forge a valid triple.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify recomputes the expected HMAC-SHA256 hex signature and compares it
// in constant time. It returns accept/reject only; the secret and the
// expected signature never leave this package.
func (v *Verifier) Verify(gatewayOrderID, gatewayPaymentID, gatewaySignature string) bool {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(gatewaySignature))
}
