package hitbtc

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// TradingClient wraps the authenticated account and order endpoints.
type TradingClient struct {
	client *RestClient
}

func NewTradingClient(client *RestClient) *TradingClient {
	return &TradingClient{client: client}
}

func (t *TradingClient) request(ctx context.Context, key, path string, params url.Values, method string) (json.RawMessage, error) {
	payload, err := t.client.Exec(ctx, path, params, method)
	if err != nil {
		return nil, err
	}
	return unwrap(payload, key), nil
}

// GetBalances returns the trading balances. With hideZero, currencies whose free and
// reserved amounts are both zero are left out.
func (t *TradingClient) GetBalances(ctx context.Context, hideZero bool) ([]Balance, error) {
	payload, err := t.request(ctx, "balance", t.client.strategy.balancePath(), nil, http.MethodGet)
	if err != nil {
		return nil, err
	}

	var balances []Balance
	if err := json.Unmarshal(payload, &balances); err != nil {
		return nil, errors.Wrap(err, "hitbtc: unable to decode balances")
	}

	if hideZero {
		balances = FilterZeroBalances(balances, t.client.Version())
	}
	return balances, nil
}

// FilterZeroBalances drops balances with nothing free and nothing reserved. The free
// amount is cash for v1 and available for v2.
func FilterZeroBalances(balances []Balance, version Version) []Balance {
	filtered := make([]Balance, 0, len(balances))
	for _, b := range balances {
		if b.Free(version).IsZero() && b.Reserved.IsZero() {
			continue
		}
		filtered = append(filtered, b)
	}
	return filtered
}

// GetActiveOrders returns orders in status new or partiallyFilled, optionally narrowed
// to symbols and to a client order id.
func (t *TradingClient) GetActiveOrders(ctx context.Context, symbols []string, clientOrderID string) ([]Order, error) {
	params := url.Values{}
	if len(symbols) > 0 {
		if t.client.Version() == V1 {
			params.Set("symbols", strings.Join(symbols, ","))
		} else {
			params.Set("symbol", strings.Join(symbols, ","))
		}
	}
	if clientOrderID != "" {
		params.Set("clientOrderId", clientOrderID)
	}

	payload, err := t.request(ctx, "orders", t.client.strategy.activeOrdersPath(), params, http.MethodGet)
	if err != nil {
		return nil, err
	}

	var orders []Order
	if err := decodeOneOrMany(payload, &orders); err != nil {
		return nil, errors.Wrap(err, "hitbtc: unable to decode active orders")
	}
	return orders, nil
}

// AddOrder places an order. See OrderRequest for the defaults. Both versions POST:
// v1 to new_order with the fields in the query string, v2 to order with the fields,
// clientOrderId included, in the form body.
func (t *TradingClient) AddOrder(ctx context.Context, o OrderRequest) (*Order, error) {
	side := OrderSide(strings.ToLower(string(o.Side)))
	if side != OrderSideBuy && side != OrderSideSell {
		return nil, errors.Wrapf(ErrInvalidOrderSide, "side %q", o.Side)
	}

	orderType := o.Type
	if orderType == "" {
		orderType = OrderTypeMarket
	}

	params := url.Values{}
	params.Set("symbol", o.Symbol)
	params.Set("side", string(side))
	params.Set("type", string(orderType))
	if !o.Price.IsZero() {
		params.Set("price", o.Price.String())
	}
	if !o.Quantity.IsZero() {
		params.Set("quantity", o.Quantity.String())
	}
	if o.TimeInForce != "" {
		params.Set("timeInForce", o.TimeInForce)
	}

	if o.ClientOrderID != "" {
		params.Set("clientOrderId", o.ClientOrderID)
	}

	payload, err := t.request(ctx, "ExecutionReport", t.client.strategy.newOrderPath(), params, http.MethodPost)
	if err != nil {
		return nil, err
	}

	var order Order
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, errors.Wrap(err, "hitbtc: unable to decode order")
	}
	return &order, nil
}

// Buy places a buy order. A zero price makes it a market order.
func (t *TradingClient) Buy(ctx context.Context, symbol string, quantity, price decimal.Decimal) (*Order, error) {
	return t.AddOrder(ctx, simpleOrder(symbol, OrderSideBuy, quantity, price))
}

// Sell places a sell order. A zero price makes it a market order.
func (t *TradingClient) Sell(ctx context.Context, symbol string, quantity, price decimal.Decimal) (*Order, error) {
	return t.AddOrder(ctx, simpleOrder(symbol, OrderSideSell, quantity, price))
}

func simpleOrder(symbol string, side OrderSide, quantity, price decimal.Decimal) OrderRequest {
	o := OrderRequest{
		Symbol:   symbol,
		Side:     side,
		Type:     OrderTypeMarket,
		Quantity: quantity,
		Price:    price,
	}
	if !price.IsZero() {
		o.Type = OrderTypeLimit
	}
	return o
}

// CancelOrder cancels the order with the given client order id.
func (t *TradingClient) CancelOrder(ctx context.Context, clientOrderID string) (*Order, error) {
	var (
		payload json.RawMessage
		err     error
	)

	if t.client.Version() == V1 {
		params := url.Values{}
		params.Set("clientOrderId", clientOrderID)
		payload, err = t.request(ctx, "ExecutionReport", "cancel_order", params, http.MethodPost)
	} else {
		payload, err = t.request(ctx, "ExecutionReport", "order/"+url.PathEscape(clientOrderID), nil, http.MethodDelete)
	}
	if err != nil {
		return nil, err
	}

	var order Order
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, errors.Wrap(err, "hitbtc: unable to decode cancelled order")
	}
	return &order, nil
}

// CancelOrders cancels every active order, or those of symbol when it is set.
func (t *TradingClient) CancelOrders(ctx context.Context, symbol string) ([]Order, error) {
	params := url.Values{}

	var (
		payload json.RawMessage
		err     error
	)
	if t.client.Version() == V1 {
		if symbol != "" {
			params.Set("symbols", symbol)
		}
		payload, err = t.request(ctx, "ExecutionReport", "cancel_orders", params, http.MethodPost)
	} else {
		if symbol != "" {
			params.Set("symbol", symbol)
		}
		payload, err = t.request(ctx, "orders", "order", params, http.MethodDelete)
	}
	if err != nil {
		return nil, err
	}

	var orders []Order
	if err := decodeOneOrMany(payload, &orders); err != nil {
		return nil, errors.Wrap(err, "hitbtc: unable to decode cancelled orders")
	}
	return orders, nil
}

// GetTradeHistory returns the account's own fills.
func (t *TradingClient) GetTradeHistory(ctx context.Context, q TradeHistoryQuery) ([]Trade, error) {
	params := url.Values{}
	if q.Symbol != "" {
		if t.client.Version() == V1 {
			params.Set("symbols", q.Symbol)
		} else {
			params.Set("symbol", q.Symbol)
		}
	}
	if q.From != "" {
		params.Set("from", q.From)
	}
	if q.Till != "" {
		params.Set("till", q.Till)
	}
	if q.Sort != "" {
		// v1 takes the lower case form
		if t.client.Version() == V1 {
			params.Set("sort", strings.ToLower(string(q.Sort)))
		} else {
			params.Set("sort", strings.ToUpper(string(q.Sort)))
		}
	}

	if t.client.Version() == V1 {
		// v1 requires the paging parameters
		if q.Limit <= 0 {
			q.Limit = 1000
		}
		params.Set("by", "ts")
		params.Set("start_index", strconv.Itoa(q.Offset))
		params.Set("max_results", strconv.Itoa(q.Limit))
	} else {
		if q.Limit > 0 {
			params.Set("limit", strconv.Itoa(q.Limit))
		}
		if q.Offset > 0 {
			params.Set("offset", strconv.Itoa(q.Offset))
		}
	}

	payload, err := t.request(ctx, "trades", t.client.strategy.tradeHistoryPath(), params, http.MethodGet)
	if err != nil {
		return nil, err
	}

	var trades []Trade
	if err := decodeOneOrMany(payload, &trades); err != nil {
		return nil, errors.Wrap(err, "hitbtc: unable to decode trade history")
	}
	return trades, nil
}

// decodeOneOrMany decodes a JSON array into out, or a single object as a one element
// slice. out must point to a slice.
func decodeOneOrMany[T any](payload json.RawMessage, out *[]T) error {
	trimmed := strings.TrimSpace(string(payload))
	if strings.HasPrefix(trimmed, "{") {
		var one T
		if err := json.Unmarshal([]byte(trimmed), &one); err != nil {
			return err
		}
		*out = []T{one}
		return nil
	}
	return json.Unmarshal([]byte(trimmed), out)
}
