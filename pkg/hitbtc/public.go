package hitbtc

import (
	"bytes"
	"context"
	"net/url"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// PublicClient wraps the market data endpoints. No credentials are needed.
type PublicClient struct {
	client *RestClient
}

func NewPublicClient(client *RestClient) *PublicClient {
	return &PublicClient{client: client}
}

// request calls a public endpoint and unwraps the v1 envelope {method: payload}.
func (p *PublicClient) request(ctx context.Context, method, path string, query url.Values) (json.RawMessage, error) {
	if path == "" {
		path = method
	}

	payload, err := p.client.PublicGet(ctx, path, query)
	if err != nil {
		return nil, err
	}

	return unwrap(payload, method), nil
}

// GetTime returns the server time.
func (p *PublicClient) GetTime(ctx context.Context) (json.RawMessage, error) {
	return p.request(ctx, "time", "", nil)
}

// GetSymbols returns the traded symbols and their characteristics.
func (p *PublicClient) GetSymbols(ctx context.Context) (json.RawMessage, error) {
	path := "symbols"
	if p.client.Version() == V2 {
		path = "symbol"
	}
	return p.request(ctx, "symbols", path, nil)
}

// GetCurrency returns all currencies, or one when currency is set.
func (p *PublicClient) GetCurrency(ctx context.Context, currency string) (json.RawMessage, error) {
	path := "currency"
	if currency != "" {
		path += "/" + url.PathEscape(currency)
	}
	return p.request(ctx, "currency", path, nil)
}

// GetTicker returns tickers indexed by symbol: all of them, or the one of symbol.
func (p *PublicClient) GetTicker(ctx context.Context, symbol string) (map[string]Ticker, error) {
	var path string
	switch p.client.Version() {
	case V1:
		path = "ticker"
		if symbol != "" {
			path = url.PathEscape(symbol) + "/ticker"
		}
	default:
		path = "ticker"
		if symbol != "" {
			path = "ticker/" + url.PathEscape(symbol)
		}
	}

	payload, err := p.request(ctx, "ticker", path, nil)
	if err != nil {
		return nil, err
	}

	return indexTickers(payload, symbol)
}

// indexTickers builds the symbol index out of the three ticker payload shapes: an array
// of tickers (v2), an object keyed by symbol (v1 all), or a single ticker object.
func indexTickers(payload json.RawMessage, symbol string) (map[string]Ticker, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return map[string]Ticker{}, nil
	}

	switch payload[0] {
	case '[':
		var tickers []Ticker
		if err := json.Unmarshal(payload, &tickers); err != nil {
			return nil, errors.Wrap(err, "hitbtc: unable to decode tickers")
		}

		index := make(map[string]Ticker, len(tickers))
		for _, ticker := range tickers {
			if ticker.Symbol == "" {
				continue
			}
			index[ticker.Symbol] = ticker
		}
		return index, nil

	case '{':
		if symbol != "" {
			var ticker Ticker
			if err := json.Unmarshal(payload, &ticker); err != nil {
				return nil, errors.Wrapf(err, "hitbtc: unable to decode ticker %s", symbol)
			}
			if ticker.Symbol == "" {
				ticker.Symbol = symbol
			}
			return map[string]Ticker{ticker.Symbol: ticker}, nil
		}

		var index map[string]Ticker
		if err := json.Unmarshal(payload, &index); err != nil {
			return nil, errors.Wrap(err, "hitbtc: unable to decode tickers")
		}
		for s, ticker := range index {
			if ticker.Symbol == "" {
				ticker.Symbol = s
				index[s] = ticker
			}
		}
		return index, nil
	}

	return nil, errors.Errorf("hitbtc: unexpected ticker payload: %s", truncate(payload, 64))
}

// GetOrderBook returns the open orders of symbol.
func (p *PublicClient) GetOrderBook(ctx context.Context, symbol string, format OrderBookFormat) (json.RawMessage, error) {
	path := "orderbook/" + url.PathEscape(symbol)
	if p.client.Version() == V1 {
		path = url.PathEscape(symbol) + "/orderbook"
	}

	if format == (OrderBookFormat{}) {
		format = DefaultOrderBookFormat
	}

	query := url.Values{}
	query.Set("format_price", format.Price)
	query.Set("format_amount", format.Amount)
	query.Set("format_amount_unit", format.AmountUnit)
	return p.request(ctx, "orderbook", path, query)
}

// GetTrades returns the trades of symbol in a trade id or timestamp interval.
func (p *PublicClient) GetTrades(ctx context.Context, symbol string, q TradesQuery) (json.RawMessage, error) {
	if q.MaxResults <= 0 {
		q.MaxResults = 1000
	}

	query := url.Values{}
	if q.By != "" {
		query.Set("by", q.By)
	}
	if q.From != "" {
		query.Set("from", q.From)
	}

	var path string
	if p.client.Version() == V1 {
		path = url.PathEscape(symbol) + "/trades"
		query.Set("start_index", strconv.Itoa(q.StartIndex))
		query.Set("max_results", strconv.Itoa(q.MaxResults))
	} else {
		path = "trades/" + url.PathEscape(symbol)
		query.Set("offset", strconv.Itoa(q.StartIndex))
		query.Set("limit", strconv.Itoa(q.MaxResults))
	}

	for k, v := range q.Extra {
		query.Set(k, v)
	}

	return p.request(ctx, "trades", path, query)
}

// GetRecentTrades returns the latest trades of symbol.
func (p *PublicClient) GetRecentTrades(ctx context.Context, symbol string, maxResults int, formatItem string, side bool) (json.RawMessage, error) {
	if maxResults <= 0 {
		maxResults = 1000
	}

	query := url.Values{}
	if p.client.Version() == V1 {
		if formatItem == "" {
			formatItem = "array"
		}
		query.Set("max_results", strconv.Itoa(maxResults))
		query.Set("format_item", formatItem)
		query.Set("side", strconv.FormatBool(side))
		return p.request(ctx, "trades", url.PathEscape(symbol)+"/trades/recent", query)
	}

	query.Set("sort", "DESC")
	query.Set("limit", strconv.Itoa(maxResults))
	return p.request(ctx, "trades", "trades/"+url.PathEscape(symbol), query)
}

// unwrap returns payload[key] when payload is an object holding key, else payload.
func unwrap(payload json.RawMessage, key string) json.RawMessage {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return payload
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return payload
	}

	if inner, ok := envelope[key]; ok {
		return inner
	}
	return payload
}
