package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/signalalpha/hitbtc-go/internal/config"
	"github.com/signalalpha/hitbtc-go/internal/database"
	"github.com/signalalpha/hitbtc-go/internal/monitor"
	"github.com/signalalpha/hitbtc-go/internal/sync"
	"github.com/signalalpha/hitbtc-go/pkg/hitbtc"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	app := &cli.App{
		Name:    "hitbtc-sync",
		Usage:   "HitBTC trade history and balance sync service",
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
		},
		Action: runSync,
		Commands: []*cli.Command{
			{
				Name:  "fills",
				Usage: "show stored trade fills",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "symbol", Aliases: []string{"s"}, Usage: "filter by symbol"},
					&cli.IntFlag{Name: "limit", Value: 50, Usage: "number of fills"},
				},
				Action: cmdFills,
			},
			{
				Name:   "balances",
				Usage:  "show the latest stored balance snapshot",
				Action: cmdBalances,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, *monitor.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if logLevel := c.String("log-level"); logLevel != "" {
		cfg.Log.Level = logLevel
	}

	return cfg, monitor.NewLogger(cfg.Log.Level, cfg.Log.Output, cfg.Log.File), nil
}

func openDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.New(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func serveMetrics(listen string, logger *monitor.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Metrics server failed")
		}
	}()

	return srv
}

func runSync(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}

	if err := config.ValidateSync(cfg); err != nil {
		return err
	}

	logger.Info("Starting HitBTC sync service")
	logger.WithFields(map[string]interface{}{
		"config_file": c.String("config"),
		"log_level":   cfg.Log.Level,
		"api_version": cfg.HitBTC.APIVersion,
		"env":         cfg.HitBTC.Env,
	}).Info("Configuration loaded")

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("Database connected")

	client, err := hitbtc.New(
		cfg.HitBTC.APIKey,
		cfg.HitBTC.APISecret,
		cfg.HitBTC.Version(),
		cfg.HitBTC.Environment(),
		hitbtc.WithThrottle(cfg.HitBTC.Throttle),
		hitbtc.WithLogger(logger.WithComponent("hitbtc")),
	)
	if err != nil {
		return fmt.Errorf("failed to create hitbtc client: %w", err)
	}

	var metricsServer *http.Server
	if cfg.Metrics.Listen != "" {
		metricsServer = serveMetrics(cfg.Metrics.Listen, logger)
		logger.WithField("listen", cfg.Metrics.Listen).Info("Metrics endpoint started")
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	syncService := sync.NewService(client, db, cfg.Sync, logger)
	if err := syncService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sync service: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"interval":  cfg.Sync.Interval.String(),
		"page_size": cfg.Sync.PageSize,
		"symbols":   cfg.Sync.Symbols,
		"user_id":   cfg.Sync.UserID,
	}).Info("Sync service running, press Ctrl+C to stop")

	<-ctx.Done()
	logger.Info("Received stop signal, shutting down...")

	syncService.Stop()

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	return nil
}

func cmdFills(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fills, err := db.GetTradeFills(cfg.Sync.UserID, c.String("symbol"), 0, 0, c.Int("limit"))
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Time", "Trade ID", "Symbol", "Side", "Price", "Quantity", "Fee"})
	for _, f := range fills {
		t.AppendRow(table.Row{
			time.UnixMilli(f.TradeTime).UTC().Format("2006-01-02 15:04:05"),
			f.TradeID, f.Symbol, f.Side, f.Price, f.Quantity, f.Fee,
		})
	}
	t.Render()
	return nil
}

func cmdBalances(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	snapshots, err := db.GetLatestBalances(cfg.Sync.UserID)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Currency", "Available", "Reserved", "Taken At"})
	for _, s := range snapshots {
		t.AppendRow(table.Row{s.Currency, s.Available, s.Reserved, s.TakenAt.UTC().Format(time.RFC3339)})
	}
	t.Render()
	return nil
}
