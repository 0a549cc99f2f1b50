package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalalpha/hitbtc-go/pkg/hitbtc"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return Wrap(sqlDB), mock
}

func testTrade(id string, ts int64) hitbtc.Trade {
	return hitbtc.Trade{
		ID:        id,
		OrderID:   "o-" + id,
		Symbol:    "ETHBTC",
		Side:      hitbtc.OrderSideBuy,
		Quantity:  decimal.RequireFromString("0.5"),
		Price:     decimal.RequireFromString("0.05"),
		Fee:       decimal.RequireFromString("0.0001"),
		Timestamp: hitbtc.Time(time.UnixMilli(ts)),
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "hitbtc", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=hitbtc sslmode=disable", cfg.DSN())
}

func TestInitSchema(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS trade_fills").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.InitSchema())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTradeFills_CountsNewRows(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO trade_fills")
	prep.ExpectExec().
		WithArgs("u1", "1", "o-1", "", "ETHBTC", "buy", "0.05", "0.5", "0.0001", int64(1522756800000)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0)) // duplicate
	mock.ExpectCommit()

	saved, err := db.SaveTradeFills("u1", []hitbtc.Trade{
		testTrade("1", 1522756800000),
		testTrade("2", 1522756800001),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTradeFills_FailingRowRollsBack(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO trade_fills")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	saved, err := db.SaveTradeFills("u1", []hitbtc.Trade{
		testTrade("1", 1522756800000),
		testTrade("2", 1522756800001),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trade fill 2")
	assert.Zero(t, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTradeFill(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("INSERT INTO trade_fills").
		WithArgs("u1", "1", "o-1", "", "ETHBTC", "buy", "0.05", "0.5", "0.0001", int64(1522756800000)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO trade_fills").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO trade_fills").WillReturnError(sql.ErrConnDone)

	inserted, err := db.SaveTradeFill("u1", testTrade("1", 1522756800000))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = db.SaveTradeFill("u1", testTrade("1", 1522756800000))
	require.NoError(t, err)
	assert.False(t, inserted)

	_, err = db.SaveTradeFill("u1", testTrade("2", 1522756800001))
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTradeFills_Empty(t *testing.T) {
	db, mock := newMockDB(t)

	saved, err := db.SaveTradeFills("u1", nil)
	require.NoError(t, err)
	assert.Zero(t, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLastTradeTime(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT MAX\\(trade_time\\)").
		WithArgs("u1", "ETHBTC").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(1522756800000)))
	mock.ExpectQuery("SELECT MAX\\(trade_time\\)").
		WithArgs("u1", "LTCBTC").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	last, err := db.GetLastTradeTime("u1", "ETHBTC")
	require.NoError(t, err)
	assert.Equal(t, int64(1522756800000), last)

	last, err = db.GetLastTradeTime("u1", "LTCBTC")
	require.NoError(t, err)
	assert.Zero(t, last)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLastTradeTime_Error(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT MAX").WillReturnError(sql.ErrConnDone)

	_, err := db.GetLastTradeTime("u1", "ETHBTC")
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestSaveSyncStatus(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO sync_status").
		WithArgs("u1", "ETHBTC", sqlmock.AnyArg(), int64(42), 3, "success", "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, db.SaveSyncStatus("u1", "ETHBTC", 42, 3, "success", ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTradeFills_Filters(t *testing.T) {
	db, mock := newMockDB(t)

	created := time.Date(2018, 4, 3, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "trade_id", "order_id", "client_order_id", "symbol", "side",
		"price", "quantity", "fee", "trade_time", "created_at",
	}).AddRow(int64(1), "u1", "9", "81", "abc", "ETHBTC", "buy", "0.05", "0.5", "0.0001", int64(1522756800000), created)

	mock.ExpectQuery("FROM trade_fills.*user_id = \\$1 AND symbol = \\$2 AND trade_time >= \\$3.*LIMIT \\$4").
		WithArgs("u1", "ETHBTC", int64(1), 10).
		WillReturnRows(rows)

	fills, err := db.GetTradeFills("u1", "ETHBTC", 1, 0, 10)
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, "9", fills[0].TradeID)
	assert.Equal(t, "abc", fills[0].ClientOrderID)
	assert.Equal(t, created, fills[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveBalanceSnapshot(t *testing.T) {
	db, mock := newMockDB(t)
	takenAt := time.Date(2018, 4, 3, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO balance_snapshots")
	prep.ExpectExec().WithArgs("u1", "BTC", "1.5", "0.5", takenAt).WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs("u1", "ETH", "2", "0", takenAt).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	saved, err := db.SaveBalanceSnapshot("u1", []hitbtc.Balance{
		{Currency: "BTC", Cash: decimal.RequireFromString("1.5"), Reserved: decimal.RequireFromString("0.5")},
		{Currency: "ETH", Cash: decimal.NewFromInt(2)},
	}, hitbtc.V1, takenAt)
	require.NoError(t, err)
	assert.Equal(t, 2, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveBalanceSnapshot_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO balance_snapshots").ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := db.SaveBalanceSnapshot("u1", []hitbtc.Balance{{Currency: "BTC"}}, hitbtc.V2, time.Now())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestBalances(t *testing.T) {
	db, mock := newMockDB(t)
	takenAt := time.Date(2018, 4, 3, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM balance_snapshots").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "currency", "available", "reserved", "taken_at"}).
			AddRow("u1", "BTC", "1.5", "0.5", takenAt).
			AddRow("u1", "ETH", "2", "0", takenAt))

	snapshots, err := db.GetLatestBalances("u1")
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "ETH", snapshots[1].Currency)
	assert.NoError(t, mock.ExpectationsWereMet())
}
