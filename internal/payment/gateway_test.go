package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(25000), MinorUnits(250))
	assert.Equal(t, int64(9999), MinorUnits(99.99))
	assert.Equal(t, int64(10), MinorUnits(0.1))
	// rounding, not truncation
	assert.Equal(t, int64(100), MinorUnits(0.999))
}

func TestCreateOrder_Success(t *testing.T) {
	var got createOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/orders", r.URL.Path)

		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "key-id", user)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(GatewayOrder{
			ID:       "order_abc",
			Amount:   got.Amount,
			Currency: got.Currency,
			Receipt:  got.Receipt,
		})
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "key-id", "key-secret")
	order, err := g.CreateOrder(context.Background(), 250, "INR", "receipt_1")

	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, int64(25000), order.Amount, "amount must be sent in minor units")
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, int64(25000), got.Amount)
}

func TestCreateOrder_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "key-id", "key-secret")
	order, err := g.CreateOrder(context.Background(), 250, "INR", "receipt_1")

	assert.Error(t, err)
	assert.Nil(t, order)
}

func TestCreateOrder_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "key-id", "key-secret")
	_, err := g.CreateOrder(context.Background(), 250, "INR", "receipt_1")

	assert.Error(t, err)
}

func TestCreateOrder_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "key-id", "key-secret")
	for i := 0; i < 5; i++ {
		_, err := g.CreateOrder(context.Background(), 250, "INR", "receipt_1")
		require.Error(t, err)
	}

	_, err := g.CreateOrder(context.Background(), 250, "INR", "receipt_1")
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}
