package sync

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/signalalpha/hitbtc-go/internal/config"
	"github.com/signalalpha/hitbtc-go/internal/monitor"
	"github.com/signalalpha/hitbtc-go/pkg/hitbtc"
)

// Exchange is the part of the HitBTC client the service reads from.
type Exchange interface {
	Version() hitbtc.Version
	GetTradeHistory(ctx context.Context, q hitbtc.TradeHistoryQuery) ([]hitbtc.Trade, error)
	GetBalances(ctx context.Context, hideZero bool) ([]hitbtc.Balance, error)
}

// Store persists what the service fetches.
type Store interface {
	InitSchema() error
	GetLastTradeTime(userID, symbol string) (int64, error)
	SaveTradeFill(userID string, trade hitbtc.Trade) (bool, error)
	SaveTradeFills(userID string, trades []hitbtc.Trade) (int, error)
	SaveBalanceSnapshot(userID string, balances []hitbtc.Balance, version hitbtc.Version, takenAt time.Time) (int, error)
	SaveSyncStatus(userID, symbol string, lastTradeTime int64, recordsCount int, status, errorMsg string) error
}

// defaultPageSize is used when the configured page size is not positive.
const defaultPageSize = 100

// balanceStatusSymbol is the sync_status symbol under which balance snapshots are logged.
const balanceStatusSymbol = "*balances"

// Service handles syncing the account's trade history and balances from HitBTC to
// the database
type Service struct {
	exchange Exchange
	db       Store
	config   config.SyncConfig
	logger   *monitor.Logger

	now    func() time.Time
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a new sync service
func NewService(exchange Exchange, db Store, cfg config.SyncConfig, logger *monitor.Logger) *Service {
	if cfg.UserID == "" {
		cfg.UserID = "default"
	}
	return &Service{
		exchange: exchange,
		db:       db,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Start initializes the schema and starts the sync loop
func (s *Service) Start(ctx context.Context) error {
	if err := s.db.InitSchema(); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	s.logger.Info("Database schema ready")

	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.syncLoop(ctx)

	s.logger.Info("Sync service started")
	return nil
}

// Stop stops the sync loop and waits for the running pass to finish
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("Sync service stopped")
}

func (s *Service) syncLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// run immediately on start
	s.SyncAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SyncAll(ctx)
		}
	}
}

// SyncAll runs one pass: a balance snapshot, then the trade history of every symbol.
func (s *Service) SyncAll(ctx context.Context) {
	s.logger.Info("Starting sync pass")

	s.syncBalances(ctx)

	for _, symbol := range s.config.Symbols {
		if ctx.Err() != nil {
			return
		}
		s.syncSymbol(ctx, symbol)
	}

	s.logger.Info("Sync pass done")
}

func (s *Service) syncBalances(ctx context.Context) {
	userID := s.config.UserID
	log := s.logger.WithComponent("sync").WithField("user_id", userID)

	balances, err := s.exchange.GetBalances(ctx, true)
	if err != nil {
		log.WithError(err).Error("Failed to fetch balances")
		syncRunsMetrics.WithLabelValues("balances", "error").Inc()
		s.saveStatus(userID, balanceStatusSymbol, 0, 0, err)
		return
	}

	saved, err := s.db.SaveBalanceSnapshot(userID, balances, s.exchange.Version(), s.now())
	if err != nil {
		log.WithError(err).Error("Failed to save balance snapshot")
		syncRunsMetrics.WithLabelValues("balances", "error").Inc()
		s.saveStatus(userID, balanceStatusSymbol, 0, 0, err)
		return
	}

	log.WithField("currencies", saved).Info("Balance snapshot stored")
	syncRunsMetrics.WithLabelValues("balances", "success").Inc()
	s.saveStatus(userID, balanceStatusSymbol, 0, saved, nil)
}

func (s *Service) syncSymbol(ctx context.Context, symbol string) {
	startTime := s.now()
	userID := s.config.UserID
	log := s.logger.WithComponent("sync").WithFields(map[string]interface{}{
		"user_id": userID,
		"symbol":  symbol,
	})

	lastTradeTime, err := s.db.GetLastTradeTime(userID, symbol)
	if err != nil {
		log.WithError(err).Warn("Failed to get last trade time, fetching all records")
		lastTradeTime = 0
	}

	pageSize := s.config.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	// oldest first, so offsets stay stable while new fills arrive
	query := hitbtc.TradeHistoryQuery{Symbol: symbol, Sort: hitbtc.SortAsc, Limit: pageSize}
	if lastTradeTime > 0 {
		query.From = strconv.FormatInt(lastTradeTime, 10)
	}

	fetched, newCount, savedCount := 0, 0, 0
	maxTradeTime := lastTradeTime
	for {
		trades, err := s.exchange.GetTradeHistory(ctx, query)
		if err != nil {
			log.WithError(err).WithField("offset", query.Offset).Error("Failed to fetch trade history")
			syncRunsMetrics.WithLabelValues("trades", "error").Inc()
			s.saveStatus(userID, symbol, maxTradeTime, savedCount, err)
			return
		}
		fetched += len(trades)

		// from is inclusive, keep only what is strictly newer
		var newTrades []hitbtc.Trade
		for _, trade := range trades {
			if trade.Timestamp.Time().UnixMilli() > lastTradeTime {
				newTrades = append(newTrades, trade)
			}
		}
		newCount += len(newTrades)

		saved, lastSaved, err := s.saveTrades(userID, newTrades, log)
		savedCount += saved
		if lastSaved > maxTradeTime {
			maxTradeTime = lastSaved
		}
		if err != nil {
			log.WithError(err).WithField("count", len(newTrades)).Error("Failed to save trades")
			syncRunsMetrics.WithLabelValues("trades", "error").Inc()
			syncedTradesMetrics.WithLabelValues(symbol).Add(float64(savedCount))
			s.saveStatus(userID, symbol, maxTradeTime, savedCount, err)
			return
		}

		if len(trades) < pageSize || ctx.Err() != nil {
			break
		}
		query.Offset += len(trades)
	}

	syncRunsMetrics.WithLabelValues("trades", "success").Inc()

	if newCount == 0 {
		log.WithField("fetched", fetched).Info("No new trades")
		s.saveStatus(userID, symbol, lastTradeTime, 0, nil)
		return
	}

	syncedTradesMetrics.WithLabelValues(symbol).Add(float64(savedCount))

	log.WithFields(map[string]interface{}{
		"fetched":     fetched,
		"new":         newCount,
		"saved":       savedCount,
		"duration_ms": s.now().Sub(startTime).Milliseconds(),
	}).Info("Trades synced")

	s.saveStatus(userID, symbol, maxTradeTime, savedCount, nil)
}

// saveTrades stores one page in a single transaction. When the batch fails the rows
// are retried one by one up to the first failing row, so the fills before it are kept.
// It returns the saved count and the time of the last fill known to be stored.
func (s *Service) saveTrades(userID string, trades []hitbtc.Trade, log *logrus.Entry) (int, int64, error) {
	if len(trades) == 0 {
		return 0, 0, nil
	}

	saved, err := s.db.SaveTradeFills(userID, trades)
	if err == nil {
		return saved, maxTime(trades), nil
	}

	log.WithError(err).Warn("Batch insert failed, saving trades one by one")

	saved = 0
	var lastSaved int64
	for _, trade := range trades {
		inserted, err := s.db.SaveTradeFill(userID, trade)
		if err != nil {
			return saved, lastSaved, err
		}
		if inserted {
			saved++
		}
		if ts := trade.Timestamp.Time().UnixMilli(); ts > lastSaved {
			lastSaved = ts
		}
	}
	return saved, lastSaved, nil
}

func maxTime(trades []hitbtc.Trade) int64 {
	var latest int64
	for _, trade := range trades {
		if ts := trade.Timestamp.Time().UnixMilli(); ts > latest {
			latest = ts
		}
	}
	return latest
}

func (s *Service) saveStatus(userID, symbol string, lastTradeTime int64, count int, syncErr error) {
	status, msg := "success", ""
	if syncErr != nil {
		status, msg = "error", syncErr.Error()
	}

	if err := s.db.SaveSyncStatus(userID, symbol, lastTradeTime, count, status, msg); err != nil {
		s.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to save sync status")
	}
}
