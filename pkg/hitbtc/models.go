package hitbtc

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// OrderSide is buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType is the execution type of an order.
type OrderType string

const (
	OrderTypeMarket     OrderType = "market"
	OrderTypeLimit      OrderType = "limit"
	OrderTypeStopLimit  OrderType = "stopLimit"
	OrderTypeStopMarket OrderType = "stopMarket"
)

// Time decodes both timestamp encodings used by the API: RFC 3339 strings (v2) and
// unix milliseconds (v1).
type Time time.Time

func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*t = Time(time.UnixMilli(ms).UTC())
		return nil
	}

	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}

	*t = Time(parsed)
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.Time().IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time().Format(time.RFC3339Nano))
}

func (t Time) Time() time.Time {
	return time.Time(t)
}

// Ticker is the 24h market summary of a symbol.
type Ticker struct {
	Symbol      string          `json:"symbol"`
	Ask         decimal.Decimal `json:"ask"`
	Bid         decimal.Decimal `json:"bid"`
	Last        decimal.Decimal `json:"last"`
	Open        decimal.Decimal `json:"open"`
	Low         decimal.Decimal `json:"low"`
	High        decimal.Decimal `json:"high"`
	Volume      decimal.Decimal `json:"volume"`
	VolumeQuote decimal.Decimal `json:"volumeQuote"`
	Timestamp   Time            `json:"timestamp"`
}

// Balance is the trading balance of one currency. v1 reports the free amount as cash,
// v2 as available; both are kept so the caller's version decides which one applies.
type Balance struct {
	Currency  string          `json:"currency"`
	Available decimal.Decimal `json:"available"`
	Cash      decimal.Decimal `json:"cash"`
	Reserved  decimal.Decimal `json:"reserved"`
}

func (b *Balance) UnmarshalJSON(data []byte) error {
	var aux struct {
		Currency     string          `json:"currency"`
		CurrencyCode string          `json:"currency_code"`
		Available    decimal.Decimal `json:"available"`
		Cash         decimal.Decimal `json:"cash"`
		Reserved     decimal.Decimal `json:"reserved"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	b.Currency = aux.Currency
	if b.Currency == "" {
		b.Currency = aux.CurrencyCode
	}
	b.Available = aux.Available
	b.Cash = aux.Cash
	b.Reserved = aux.Reserved
	return nil
}

// Free returns the amount available for trading under the given API version.
func (b Balance) Free(v Version) decimal.Decimal {
	s, err := strategyFor(v)
	if err != nil {
		return b.Total().Sub(b.Reserved)
	}
	return s.freeBalance(b)
}

// Total is the free plus reserved amount.
func (b Balance) Total() decimal.Decimal {
	free := b.Available
	if free.IsZero() {
		free = b.Cash
	}
	return free.Add(b.Reserved)
}

// Order is an order as reported by the trading endpoints.
type Order struct {
	ID            string          `json:"id"`
	ClientOrderID string          `json:"clientOrderId"`
	Symbol        string          `json:"symbol"`
	Side          OrderSide       `json:"side"`
	Status        string          `json:"status"`
	Type          OrderType       `json:"type"`
	TimeInForce   string          `json:"timeInForce"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	CumQuantity   decimal.Decimal `json:"cumQuantity"`
	CreatedAt     Time            `json:"createdAt"`
	UpdatedAt     Time            `json:"updatedAt"`
}

func (o *Order) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID            json.RawMessage `json:"id"`
		ClientOrderID string          `json:"clientOrderId"`
		Symbol        string          `json:"symbol"`
		Side          OrderSide       `json:"side"`
		Status        string          `json:"status"`
		Type          OrderType       `json:"type"`
		TimeInForce   string          `json:"timeInForce"`
		Quantity      decimal.Decimal `json:"quantity"`
		Price         decimal.Decimal `json:"price"`
		CumQuantity   decimal.Decimal `json:"cumQuantity"`
		CreatedAt     Time            `json:"createdAt"`
		UpdatedAt     Time            `json:"updatedAt"`

		// v1 names
		OrderID       json.RawMessage `json:"orderId"`
		OrderStatus   string          `json:"orderStatus"`
		OrderPrice    decimal.Decimal `json:"orderPrice"`
		OrderQuantity decimal.Decimal `json:"orderQuantity"`
		LastTimestamp Time            `json:"lastTimestamp"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*o = Order{
		ID:            rawString(aux.ID),
		ClientOrderID: aux.ClientOrderID,
		Symbol:        aux.Symbol,
		Side:          aux.Side,
		Status:        aux.Status,
		Type:          aux.Type,
		TimeInForce:   aux.TimeInForce,
		Quantity:      aux.Quantity,
		Price:         aux.Price,
		CumQuantity:   aux.CumQuantity,
		CreatedAt:     aux.CreatedAt,
		UpdatedAt:     aux.UpdatedAt,
	}

	if o.ID == "" {
		o.ID = rawString(aux.OrderID)
	}
	if o.Status == "" {
		o.Status = aux.OrderStatus
	}
	if o.Price.IsZero() {
		o.Price = aux.OrderPrice
	}
	if o.Quantity.IsZero() {
		o.Quantity = aux.OrderQuantity
	}
	if o.UpdatedAt.Time().IsZero() {
		o.UpdatedAt = aux.LastTimestamp
	}
	return nil
}

// Trade is one of the account's own fills.
type Trade struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"orderId"`
	ClientOrderID string          `json:"clientOrderId"`
	Symbol        string          `json:"symbol"`
	Side          OrderSide       `json:"side"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Fee           decimal.Decimal `json:"fee"`
	Timestamp     Time            `json:"timestamp"`
}

func (t *Trade) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID            json.RawMessage `json:"id"`
		OrderID       json.RawMessage `json:"orderId"`
		ClientOrderID string          `json:"clientOrderId"`
		Symbol        string          `json:"symbol"`
		Side          OrderSide       `json:"side"`
		Quantity      decimal.Decimal `json:"quantity"`
		Price         decimal.Decimal `json:"price"`
		Fee           decimal.Decimal `json:"fee"`
		Timestamp     Time            `json:"timestamp"`

		// v1 names
		TradeID         json.RawMessage `json:"tradeId"`
		OriginalOrderID json.RawMessage `json:"originalOrderId"`
		ExecQuantity    decimal.Decimal `json:"execQuantity"`
		ExecPrice       decimal.Decimal `json:"execPrice"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*t = Trade{
		ID:            rawString(aux.ID),
		OrderID:       rawString(aux.OrderID),
		ClientOrderID: aux.ClientOrderID,
		Symbol:        aux.Symbol,
		Side:          aux.Side,
		Quantity:      aux.Quantity,
		Price:         aux.Price,
		Fee:           aux.Fee,
		Timestamp:     aux.Timestamp,
	}

	if t.ID == "" {
		t.ID = rawString(aux.TradeID)
	}
	if t.OrderID == "" {
		t.OrderID = rawString(aux.OriginalOrderID)
	}
	if t.Quantity.IsZero() {
		t.Quantity = aux.ExecQuantity
	}
	if t.Price.IsZero() {
		t.Price = aux.ExecPrice
	}
	return nil
}

// OrderRequest describes a new order. Type defaults to market; zero Price and Quantity
// are left out of the request, and so is an empty ClientOrderID.
type OrderRequest struct {
	Symbol        string
	Side          OrderSide
	Type          OrderType
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	ClientOrderID string
	TimeInForce   string
}

// OrderBookFormat selects how the order book endpoint renders numbers.
type OrderBookFormat struct {
	Price      string // "string" or "number"
	Amount     string // "string" or "number"
	AmountUnit string // "currency" or "lot"
}

// DefaultOrderBookFormat renders everything as strings in currency units.
var DefaultOrderBookFormat = OrderBookFormat{Price: "string", Amount: "string", AmountUnit: "currency"}

// TradesQuery filters the public trade history of a symbol.
type TradesQuery struct {
	// By is "trade_id" or "ts" (v1), "id" or "timestamp" (v2).
	By         string
	From       string
	StartIndex int
	MaxResults int
	Extra      map[string]string
}

// SortOrder orders history results by time.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// TradeHistoryQuery filters the account's own fills. The exchange returns the newest
// first unless Sort is SortAsc.
type TradeHistoryQuery struct {
	Symbol string
	From   string
	Till   string
	Sort   SortOrder
	Limit  int
	Offset int
}

// rawString turns a JSON string or number into its textual value.
func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	return strings.Trim(string(raw), `"`)
}
