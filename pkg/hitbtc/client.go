package hitbtc

import (
	"context"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Client is the entry point of the package. It exposes the market data calls and, when
// built with credentials, the trading calls of one API version and environment.
type Client struct {
	rest    *RestClient
	public  *PublicClient
	trading *TradingClient
}

// New builds a Client. An empty key or secret gives a public-only client: market data
// works and every trading call returns ErrNoCredentials.
func New(key, secret string, version Version, env Environment, options ...Option) (*Client, error) {
	if key != "" && secret != "" {
		options = append([]Option{WithCredentials(key, secret)}, options...)
	}

	rest, err := NewRestClient(version, env, options...)
	if err != nil {
		return nil, err
	}

	c := &Client{
		rest:   rest,
		public: NewPublicClient(rest),
	}
	if rest.HasCredentials() {
		c.trading = NewTradingClient(rest)
	}
	return c, nil
}

// CanTrade reports whether trading calls are available.
func (c *Client) CanTrade() bool {
	return c.trading != nil
}

func (c *Client) Version() Version {
	return c.rest.Version()
}

func (c *Client) Environment() Environment {
	return c.rest.Environment()
}

func (c *Client) Public() *PublicClient {
	return c.public
}

// Trading returns the trading client, nil in public-only mode.
func (c *Client) Trading() *TradingClient {
	return c.trading
}

func (c *Client) GetTime(ctx context.Context) (json.RawMessage, error) {
	return c.public.GetTime(ctx)
}

func (c *Client) GetSymbols(ctx context.Context) (json.RawMessage, error) {
	return c.public.GetSymbols(ctx)
}

func (c *Client) GetCurrency(ctx context.Context, currency string) (json.RawMessage, error) {
	return c.public.GetCurrency(ctx, currency)
}

func (c *Client) GetTicker(ctx context.Context, symbol string) (map[string]Ticker, error) {
	return c.public.GetTicker(ctx, symbol)
}

func (c *Client) GetOrderBook(ctx context.Context, symbol string, format OrderBookFormat) (json.RawMessage, error) {
	return c.public.GetOrderBook(ctx, symbol, format)
}

func (c *Client) GetTrades(ctx context.Context, symbol string, q TradesQuery) (json.RawMessage, error) {
	return c.public.GetTrades(ctx, symbol, q)
}

func (c *Client) GetRecentTrades(ctx context.Context, symbol string, maxResults int, formatItem string, side bool) (json.RawMessage, error) {
	return c.public.GetRecentTrades(ctx, symbol, maxResults, formatItem, side)
}

func (c *Client) GetBalances(ctx context.Context, hideZero bool) ([]Balance, error) {
	if c.trading == nil {
		return nil, ErrNoCredentials
	}
	return c.trading.GetBalances(ctx, hideZero)
}

func (c *Client) GetActiveOrders(ctx context.Context, symbols []string, clientOrderID string) ([]Order, error) {
	if c.trading == nil {
		return nil, ErrNoCredentials
	}
	return c.trading.GetActiveOrders(ctx, symbols, clientOrderID)
}

func (c *Client) AddOrder(ctx context.Context, o OrderRequest) (*Order, error) {
	if c.trading == nil {
		return nil, ErrNoCredentials
	}
	return c.trading.AddOrder(ctx, o)
}

func (c *Client) Buy(ctx context.Context, symbol string, quantity, price decimal.Decimal) (*Order, error) {
	if c.trading == nil {
		return nil, ErrNoCredentials
	}
	return c.trading.Buy(ctx, symbol, quantity, price)
}

func (c *Client) Sell(ctx context.Context, symbol string, quantity, price decimal.Decimal) (*Order, error) {
	if c.trading == nil {
		return nil, ErrNoCredentials
	}
	return c.trading.Sell(ctx, symbol, quantity, price)
}

func (c *Client) CancelOrder(ctx context.Context, clientOrderID string) (*Order, error) {
	if c.trading == nil {
		return nil, ErrNoCredentials
	}
	return c.trading.CancelOrder(ctx, clientOrderID)
}

func (c *Client) CancelOrders(ctx context.Context, symbol string) ([]Order, error) {
	if c.trading == nil {
		return nil, ErrNoCredentials
	}
	return c.trading.CancelOrders(ctx, symbol)
}

func (c *Client) GetTradeHistory(ctx context.Context, q TradeHistoryQuery) ([]Trade, error) {
	if c.trading == nil {
		return nil, ErrNoCredentials
	}
	return c.trading.GetTradeHistory(ctx, q)
}
