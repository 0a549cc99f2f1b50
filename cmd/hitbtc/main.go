package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/signalalpha/hitbtc-go/internal/config"
	"github.com/signalalpha/hitbtc-go/internal/monitor"
	"github.com/signalalpha/hitbtc-go/pkg/hitbtc"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func symbolFlag(value string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "symbol",
		Aliases: []string{"s"},
		Value:   value,
		Usage:   "trading symbol, e.g. ETHBTC",
	}
}

func orderFlags() []cli.Flag {
	return []cli.Flag{
		symbolFlag("ETHBTC"),
		&cli.StringFlag{
			Name:     "quantity",
			Aliases:  []string{"q"},
			Required: true,
			Usage:    "order quantity in base currency",
		},
		&cli.StringFlag{
			Name:    "price",
			Aliases: []string{"p"},
			Usage:   "limit price, empty for a market order",
		},
		&cli.BoolFlag{
			Name:  "round",
			Usage: "round price and quantity to the symbol's tick size and quantity increment",
		},
	}
}

func main() {
	app := &cli.App{
		Name:    "hitbtc",
		Usage:   "HitBTC exchange command line client",
		Version: fmt.Sprintf("%s (build: %s, commit: %s)", Version, BuildTime, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file path",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "log level (debug, info, warn, error)",
			},
			&cli.IntFlag{
				Name:  "api-version",
				Usage: "API version (1 or 2), overrides the config file",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "API environment (live or demo), overrides the config file",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print raw JSON instead of tables",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "time",
				Usage:  "show the server time",
				Action: cmdTime,
			},
			{
				Name:   "symbols",
				Usage:  "list the traded symbols",
				Action: cmdSymbols,
			},
			{
				Name:      "currency",
				Usage:     "show all currencies or one",
				ArgsUsage: "[CURRENCY]",
				Action:    cmdCurrency,
			},
			{
				Name:   "ticker",
				Usage:  "show tickers",
				Flags:  []cli.Flag{symbolFlag("")},
				Action: cmdTicker,
			},
			{
				Name:  "orderbook",
				Usage: "show the order book of a symbol",
				Flags: []cli.Flag{
					symbolFlag("ETHBTC"),
					&cli.StringFlag{Name: "format-price", Value: "string", Usage: "string or number"},
					&cli.StringFlag{Name: "format-amount", Value: "string", Usage: "string or number"},
					&cli.StringFlag{Name: "format-amount-unit", Value: "currency", Usage: "currency or lot"},
				},
				Action: cmdOrderBook,
			},
			{
				Name:  "trades",
				Usage: "show the public trades of a symbol",
				Flags: []cli.Flag{
					symbolFlag("ETHBTC"),
					&cli.StringFlag{Name: "by", Value: "ts", Usage: "interval kind: trade_id/ts (v1), id/timestamp (v2)"},
					&cli.StringFlag{Name: "from", Value: "0", Usage: "interval start"},
					&cli.IntFlag{Name: "start-index", Usage: "offset of the first trade"},
					&cli.IntFlag{Name: "max-results", Value: 100, Usage: "number of trades"},
				},
				Action: cmdTrades,
			},
			{
				Name:  "recent-trades",
				Usage: "show the latest public trades of a symbol",
				Flags: []cli.Flag{
					symbolFlag("ETHBTC"),
					&cli.IntFlag{Name: "max-results", Value: 100, Usage: "number of trades"},
					&cli.StringFlag{Name: "format-item", Value: "object", Usage: "array or object (v1)"},
					&cli.BoolFlag{Name: "side", Value: true, Usage: "include the taker side (v1)"},
				},
				Action: cmdRecentTrades,
			},
			{
				Name:  "balances",
				Usage: "show the trading balances",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "include zero balances"},
				},
				Action: cmdBalances,
			},
			{
				Name:  "orders",
				Usage: "show the active orders",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "symbol", Aliases: []string{"s"}, Usage: "filter by symbol, repeatable"},
					&cli.StringFlag{Name: "client-order-id", Usage: "filter by client order id"},
				},
				Action: cmdOrders,
			},
			{
				Name:   "buy",
				Usage:  "place a buy order",
				Flags:  orderFlags(),
				Action: cmdBuy,
			},
			{
				Name:   "sell",
				Usage:  "place a sell order",
				Flags:  orderFlags(),
				Action: cmdSell,
			},
			{
				Name:  "order",
				Usage: "place an order",
				Flags: append(orderFlags(),
					&cli.StringFlag{Name: "side", Aliases: []string{"d"}, Value: "buy", Usage: "buy or sell"},
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "market, limit, stopLimit or stopMarket (default: limit when a price is given)"},
					&cli.StringFlag{Name: "client-order-id", Usage: "client order id, generated when empty"},
					&cli.StringFlag{Name: "time-in-force", Usage: "GTC, IOC, FOK, Day or GTD"},
				),
				Action: cmdOrder,
			},
			{
				Name:      "cancel",
				Usage:     "cancel an order by client order id",
				ArgsUsage: "CLIENT_ORDER_ID",
				Action:    cmdCancel,
			},
			{
				Name:   "cancel-all",
				Usage:  "cancel all active orders",
				Flags:  []cli.Flag{symbolFlag("")},
				Action: cmdCancelAll,
			},
			{
				Name:  "history",
				Usage: "show the account's trade history",
				Flags: []cli.Flag{
					symbolFlag(""),
					&cli.StringFlag{Name: "from", Usage: "start time or trade id"},
					&cli.StringFlag{Name: "till", Usage: "end time or trade id"},
					&cli.IntFlag{Name: "limit", Value: 100, Usage: "number of trades"},
					&cli.IntFlag{Name: "offset", Usage: "offset of the first trade"},
				},
				Action: cmdHistory,
			},
			{
				Name:   "valuation",
				Usage:  "show the total account value in BTC",
				Action: cmdValuation,
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			if c.String("log-level") != "" {
				cfg.Log.Level = c.String("log-level")
			}
			if c.Int("api-version") != 0 {
				cfg.HitBTC.APIVersion = c.Int("api-version")
			}
			if c.String("env") != "" {
				if _, err := hitbtc.ParseEnvironment(c.String("env")); err != nil {
					return err
				}
				cfg.HitBTC.Env = c.String("env")
			}

			c.App.Metadata["config"] = cfg
			c.App.Metadata["logger"] = monitor.NewLogger(cfg.Log.Level, cfg.Log.Output, cfg.Log.File)

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getClient(c *cli.Context) (*hitbtc.Client, error) {
	cfg := c.App.Metadata["config"].(*config.Config)
	logger := c.App.Metadata["logger"].(*monitor.Logger)

	return hitbtc.New(
		cfg.HitBTC.APIKey,
		cfg.HitBTC.APISecret,
		cfg.HitBTC.Version(),
		cfg.HitBTC.Environment(),
		hitbtc.WithThrottle(cfg.HitBTC.Throttle),
		hitbtc.WithLogger(logger.WithComponent("hitbtc")),
	)
}

// getTradingClient fails early with a hint when no credentials are configured.
func getTradingClient(c *cli.Context) (*hitbtc.Client, error) {
	client, err := getClient(c)
	if err != nil {
		return nil, err
	}
	if !client.CanTrade() {
		return nil, fmt.Errorf("%w: set HITBTC_API_KEY and HITBTC_API_SECRET", hitbtc.ErrNoCredentials)
	}
	return client, nil
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
