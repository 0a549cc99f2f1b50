package hitbtc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_PublicOnly(t *testing.T) {
	transport := &mockTransport{}
	transport.reply(http.MethodGet, "/api/2/public/ticker", http.StatusOK, `[{"symbol":"ETHBTC","last":"0.05"}]`)

	client, err := New("", "", V2, Demo, WithHTTPClient(&http.Client{Transport: transport}), WithThrottle(0))
	require.NoError(t, err)
	assert.False(t, client.CanTrade())
	assert.Nil(t, client.Trading())
	assert.Equal(t, Demo, client.Environment())

	tickers, err := client.GetTicker(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, tickers, "ETHBTC")

	ctx := context.Background()
	_, err = client.GetBalances(ctx, true)
	assert.ErrorIs(t, err, ErrNoCredentials)
	_, err = client.GetActiveOrders(ctx, nil, "")
	assert.ErrorIs(t, err, ErrNoCredentials)
	_, err = client.AddOrder(ctx, OrderRequest{Symbol: "ETHBTC", Side: OrderSideBuy})
	assert.ErrorIs(t, err, ErrNoCredentials)
	_, err = client.Buy(ctx, "ETHBTC", decimal.NewFromInt(1), decimal.Zero)
	assert.ErrorIs(t, err, ErrNoCredentials)
	_, err = client.Sell(ctx, "ETHBTC", decimal.NewFromInt(1), decimal.Zero)
	assert.ErrorIs(t, err, ErrNoCredentials)
	_, err = client.CancelOrder(ctx, "abc")
	assert.ErrorIs(t, err, ErrNoCredentials)
	_, err = client.CancelOrders(ctx, "")
	assert.ErrorIs(t, err, ErrNoCredentials)
	_, err = client.GetTradeHistory(ctx, TradeHistoryQuery{})
	assert.ErrorIs(t, err, ErrNoCredentials)

	// only the ticker call reached the transport
	assert.Len(t, transport.requests, 1)
}

func TestNew_HalfCredentialsIsPublicOnly(t *testing.T) {
	client, err := New("key", "", V1, Live)
	require.NoError(t, err)
	assert.False(t, client.CanTrade())
}

func TestNew_WithCredentials(t *testing.T) {
	transport := &mockTransport{}
	transport.reply(http.MethodGet, "/api/1/trading/balance", http.StatusOK, `{"balance":[{"currency_code":"ETH","cash":"1"}]}`)

	client, err := New("key", "secret", V1, Live,
		WithHTTPClient(&http.Client{Transport: transport}),
		WithThrottle(0),
		WithNonceGenerator(testNonce))
	require.NoError(t, err)
	require.True(t, client.CanTrade())
	assert.Equal(t, V1, client.Version())
	assert.Same(t, client.Public(), client.public)

	balances, err := client.GetBalances(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "ETH", balances[0].Currency)
}

func TestNew_UnknownVersion(t *testing.T) {
	_, err := New("key", "secret", Version(9), Live)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestClient_AgainstServer(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, secret, ok := r.BasicAuth()
		if !ok || key != "key" || secret != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		if r.Header.Get(SignatureHeader) != Sign(r.RequestURI+gotBody, "secret") {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"error":{"code":1002,"message":"Authorisation failed"}}`)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"840450210","clientOrderId":"abc","symbol":"ETHBTC","side":"buy","status":"new","type":"limit","quantity":"1","price":"0.05","cumQuantity":"0"}`)
	}))
	defer srv.Close()

	client, err := New("key", "secret", V2, Live, WithBaseURL(srv.URL), WithThrottle(0))
	require.NoError(t, err)

	order, err := client.AddOrder(context.Background(), OrderRequest{
		Symbol:        "ETHBTC",
		Side:          OrderSideBuy,
		Type:          OrderTypeLimit,
		Price:         decimal.RequireFromString("0.05"),
		Quantity:      decimal.NewFromInt(1),
		ClientOrderID: "abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "clientOrderId=abc&price=0.05&quantity=1&side=buy&symbol=ETHBTC&type=limit", gotBody)
	assert.Equal(t, "840450210", order.ID)
	assert.Equal(t, "abc", order.ClientOrderID)
	assert.True(t, order.Price.Equal(decimal.RequireFromString("0.05")))
}
