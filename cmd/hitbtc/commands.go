package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/signalalpha/hitbtc-go/internal/portfolio"
	"github.com/signalalpha/hitbtc-go/pkg/hitbtc"
)

func cmdTime(c *cli.Context) error {
	client, err := getClient(c)
	if err != nil {
		return err
	}

	payload, err := client.GetTime(c.Context)
	if err != nil {
		return fmt.Errorf("failed to get server time: %w", err)
	}

	printJSON(payload)
	return nil
}

func cmdSymbols(c *cli.Context) error {
	client, err := getClient(c)
	if err != nil {
		return err
	}

	payload, err := client.GetSymbols(c.Context)
	if err != nil {
		return fmt.Errorf("failed to get symbols: %w", err)
	}

	printJSON(payload)
	return nil
}

func cmdCurrency(c *cli.Context) error {
	client, err := getClient(c)
	if err != nil {
		return err
	}

	payload, err := client.GetCurrency(c.Context, upper(c.Args().First()))
	if err != nil {
		return fmt.Errorf("failed to get currency: %w", err)
	}

	printJSON(payload)
	return nil
}

func cmdTicker(c *cli.Context) error {
	client, err := getClient(c)
	if err != nil {
		return err
	}

	tickers, err := client.GetTicker(c.Context, upper(c.String("symbol")))
	if err != nil {
		return fmt.Errorf("failed to get ticker: %w", err)
	}

	if c.Bool("json") {
		printJSON(tickers)
		return nil
	}
	renderTickers(tickers)
	return nil
}

func cmdOrderBook(c *cli.Context) error {
	client, err := getClient(c)
	if err != nil {
		return err
	}

	format := hitbtc.OrderBookFormat{
		Price:      c.String("format-price"),
		Amount:     c.String("format-amount"),
		AmountUnit: c.String("format-amount-unit"),
	}

	payload, err := client.GetOrderBook(c.Context, upper(c.String("symbol")), format)
	if err != nil {
		return fmt.Errorf("failed to get order book: %w", err)
	}

	printJSON(payload)
	return nil
}

func cmdTrades(c *cli.Context) error {
	client, err := getClient(c)
	if err != nil {
		return err
	}

	q := hitbtc.TradesQuery{
		By:         c.String("by"),
		From:       c.String("from"),
		StartIndex: c.Int("start-index"),
		MaxResults: c.Int("max-results"),
	}

	payload, err := client.GetTrades(c.Context, upper(c.String("symbol")), q)
	if err != nil {
		return fmt.Errorf("failed to get trades: %w", err)
	}

	printJSON(payload)
	return nil
}

func cmdRecentTrades(c *cli.Context) error {
	client, err := getClient(c)
	if err != nil {
		return err
	}

	payload, err := client.GetRecentTrades(c.Context, upper(c.String("symbol")),
		c.Int("max-results"), c.String("format-item"), c.Bool("side"))
	if err != nil {
		return fmt.Errorf("failed to get recent trades: %w", err)
	}

	printJSON(payload)
	return nil
}

func cmdBalances(c *cli.Context) error {
	client, err := getTradingClient(c)
	if err != nil {
		return err
	}

	balances, err := client.GetBalances(c.Context, !c.Bool("all"))
	if err != nil {
		return fmt.Errorf("failed to get balances: %w", err)
	}

	if c.Bool("json") {
		printJSON(balances)
		return nil
	}
	renderBalances(balances, client.Version())
	return nil
}

func cmdOrders(c *cli.Context) error {
	client, err := getTradingClient(c)
	if err != nil {
		return err
	}

	var symbols []string
	for _, s := range c.StringSlice("symbol") {
		symbols = append(symbols, upper(s))
	}

	orders, err := client.GetActiveOrders(c.Context, symbols, c.String("client-order-id"))
	if err != nil {
		return fmt.Errorf("failed to get active orders: %w", err)
	}

	if c.Bool("json") {
		printJSON(orders)
		return nil
	}
	renderOrders(orders)
	return nil
}

// newClientOrderID returns a 32 character id, the longest the exchange accepts.
func newClientOrderID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// buildOrderRequest reads the shared order flags. With --round the price and quantity
// are fitted to the symbol's precision first.
func buildOrderRequest(c *cli.Context, client *hitbtc.Client, side hitbtc.OrderSide) (hitbtc.OrderRequest, error) {
	req := hitbtc.OrderRequest{
		Symbol:        upper(c.String("symbol")),
		Side:          side,
		ClientOrderID: newClientOrderID(),
	}

	quantity, err := decimal.NewFromString(c.String("quantity"))
	if err != nil {
		return req, fmt.Errorf("invalid quantity %q: %w", c.String("quantity"), err)
	}
	req.Quantity = quantity

	req.Type = hitbtc.OrderTypeMarket
	if p := c.String("price"); p != "" {
		price, err := decimal.NewFromString(p)
		if err != nil {
			return req, fmt.Errorf("invalid price %q: %w", p, err)
		}
		req.Price = price
		req.Type = hitbtc.OrderTypeLimit
	}

	if c.Bool("round") {
		payload, err := client.GetSymbols(c.Context)
		if err != nil {
			return req, fmt.Errorf("failed to get symbols: %w", err)
		}
		table, err := portfolio.ParseSymbols(payload)
		if err != nil {
			return req, fmt.Errorf("failed to parse symbols: %w", err)
		}
		precision, ok := table[req.Symbol]
		if !ok {
			return req, fmt.Errorf("unknown symbol %s", req.Symbol)
		}
		req.Quantity = precision.AdjustQuantity(req.Quantity)
		if !req.Price.IsZero() {
			req.Price = precision.AdjustPrice(req.Price)
		}
	}

	return req, nil
}

func placeOrder(c *cli.Context, side hitbtc.OrderSide) error {
	client, err := getTradingClient(c)
	if err != nil {
		return err
	}

	if c.IsSet("side") {
		side = hitbtc.OrderSide(strings.ToLower(c.String("side")))
	}

	req, err := buildOrderRequest(c, client, side)
	if err != nil {
		return err
	}

	if c.IsSet("type") {
		req.Type = hitbtc.OrderType(c.String("type"))
	}
	if id := c.String("client-order-id"); id != "" {
		req.ClientOrderID = id
	}
	req.TimeInForce = c.String("time-in-force")

	fmt.Fprintf(stdout, "Placing %s %s order: %s %s @ %s (client order id %s)\n",
		req.Side, req.Type, req.Quantity, req.Symbol, req.Price, req.ClientOrderID)

	order, err := client.AddOrder(c.Context, req)
	if err != nil {
		return fmt.Errorf("failed to place order: %w", err)
	}

	printJSON(order)
	return nil
}

func cmdBuy(c *cli.Context) error {
	return placeOrder(c, hitbtc.OrderSideBuy)
}

func cmdSell(c *cli.Context) error {
	return placeOrder(c, hitbtc.OrderSideSell)
}

func cmdOrder(c *cli.Context) error {
	return placeOrder(c, hitbtc.OrderSide(strings.ToLower(c.String("side"))))
}

func cmdCancel(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("client order id is required")
	}

	client, err := getTradingClient(c)
	if err != nil {
		return err
	}

	order, err := client.CancelOrder(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	printJSON(order)
	return nil
}

func cmdCancelAll(c *cli.Context) error {
	client, err := getTradingClient(c)
	if err != nil {
		return err
	}

	orders, err := client.CancelOrders(c.Context, upper(c.String("symbol")))
	if err != nil {
		return fmt.Errorf("failed to cancel orders: %w", err)
	}

	if c.Bool("json") {
		printJSON(orders)
		return nil
	}
	renderOrders(orders)
	return nil
}

func cmdHistory(c *cli.Context) error {
	client, err := getTradingClient(c)
	if err != nil {
		return err
	}

	trades, err := client.GetTradeHistory(c.Context, hitbtc.TradeHistoryQuery{
		Symbol: upper(c.String("symbol")),
		From:   c.String("from"),
		Till:   c.String("till"),
		Limit:  c.Int("limit"),
		Offset: c.Int("offset"),
	})
	if err != nil {
		return fmt.Errorf("failed to get trade history: %w", err)
	}

	if c.Bool("json") {
		printJSON(trades)
		return nil
	}
	renderTrades(trades)
	return nil
}

func cmdValuation(c *cli.Context) error {
	client, err := getTradingClient(c)
	if err != nil {
		return err
	}

	balances, err := client.GetBalances(c.Context, true)
	if err != nil {
		return fmt.Errorf("failed to get balances: %w", err)
	}

	tickers, err := client.GetTicker(c.Context, "")
	if err != nil {
		return fmt.Errorf("failed to get tickers: %w", err)
	}

	v := portfolio.Value(balances, tickers, client.Version())
	if c.Bool("json") {
		printJSON(v)
		return nil
	}
	renderValuation(v)
	return nil
}
