package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// GatewayOrder is the ephemeral order record the gateway issues before
// collecting funds. Amount is in minor currency units (paise).
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// Gateway creates payment orders against the provider's REST API. Calls go
// through a circuit breaker so a flapping provider fails fast instead of
// tying up checkout requests.
type Gateway struct {
	baseURL string
	keyID   string
	secret  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*GatewayOrder]
}

func NewGateway(baseURL, keyID, secret string) *Gateway {
	breaker := gobreaker.NewCircuitBreaker[*GatewayOrder](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Gateway{
		baseURL: baseURL,
		keyID:   keyID,
		secret:  secret,
		client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
	}
}

// MinorUnits converts a decimal currency amount to minor units.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateOrder registers a payment order with the gateway and returns its
// identifier. amount is in decimal currency units; receipt must be unique per
// checkout attempt.
func (g *Gateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*GatewayOrder, error) {
	order, err := g.breaker.Execute(func() (*GatewayOrder, error) {
		return g.createOrder(ctx, amount, currency, receipt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return nil, err
	}
	return order, nil
}

func (g *Gateway) createOrder(ctx context.Context, amount float64, currency, receipt string) (*GatewayOrder, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:   MinorUnits(amount),
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.secret)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// do not echo the provider body to callers, it may contain account detail
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var order GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("decode gateway order: %w", err)
	}
	if order.ID == "" {
		return nil, errors.New("gateway order missing id")
	}

	return &order, nil
}
