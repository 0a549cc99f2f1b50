package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/signalalpha/hitbtc-go/pkg/hitbtc"
)

// TradeFill represents a trade fill record in the database
type TradeFill struct {
	ID            int64
	UserID        string
	TradeID       string
	OrderID       string
	ClientOrderID string
	Symbol        string
	Side          string
	Price         string
	Quantity      string
	Fee           string
	TradeTime     int64
	CreatedAt     time.Time
}

const insertTradeFill = `
		INSERT INTO trade_fills (
			user_id, trade_id, order_id, client_order_id, symbol,
			side, price, quantity, fee, trade_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, symbol, trade_id)
		DO NOTHING
	`

func tradeFillArgs(userID string, trade hitbtc.Trade) []interface{} {
	return []interface{}{
		userID,
		trade.ID,
		trade.OrderID,
		trade.ClientOrderID,
		trade.Symbol,
		string(trade.Side),
		trade.Price.String(),
		trade.Quantity.String(),
		trade.Fee.String(),
		trade.Timestamp.Time().UnixMilli(),
	}
}

// SaveTradeFill saves a trade fill to the database and reports whether it was new
func (db *DB) SaveTradeFill(userID string, trade hitbtc.Trade) (bool, error) {
	result, err := db.Exec(insertTradeFill, tradeFillArgs(userID, trade)...)
	if err != nil {
		return false, fmt.Errorf("failed to save trade fill %s: %w", trade.ID, err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// SaveTradeFills saves multiple trade fills in a transaction and returns how many rows
// were new. A failing row rolls back the whole batch.
func (db *DB) SaveTradeFills(userID string, trades []hitbtc.Trade) (int, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertTradeFill)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	savedCount := 0
	for _, trade := range trades {
		result, err := stmt.Exec(tradeFillArgs(userID, trade)...)
		if err != nil {
			return 0, fmt.Errorf("failed to save trade fill %s: %w", trade.ID, err)
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected > 0 {
			savedCount++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return savedCount, nil
}

// GetLastTradeTime gets the last trade time (unix ms) for a user and symbol, zero when
// nothing is stored yet.
func (db *DB) GetLastTradeTime(userID, symbol string) (int64, error) {
	var lastTradeTime sql.NullInt64
	query := `
		SELECT MAX(trade_time)
		FROM trade_fills
		WHERE user_id = $1 AND symbol = $2
	`

	if err := db.QueryRow(query, userID, symbol).Scan(&lastTradeTime); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get last trade time: %w", err)
	}

	if !lastTradeTime.Valid {
		return 0, nil
	}

	return lastTradeTime.Int64, nil
}

// SaveSyncStatus saves sync status
func (db *DB) SaveSyncStatus(userID, symbol string, lastTradeTime int64, recordsCount int, status, errorMsg string) error {
	query := `
		INSERT INTO sync_status (
			user_id, symbol, last_sync_time, last_trade_time,
			records_count, status, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := db.Exec(
		query,
		userID,
		symbol,
		time.Now(),
		lastTradeTime,
		recordsCount,
		status,
		errorMsg,
	)

	return err
}

// GetTradeFills queries trade fills with filters
func (db *DB) GetTradeFills(userID, symbol string, startTime, endTime int64, limit int) ([]TradeFill, error) {
	query := `
		SELECT id, user_id, trade_id, order_id, COALESCE(client_order_id, ''), symbol, side,
		       price, quantity, fee, trade_time, created_at
		FROM trade_fills
		WHERE 1=1
	`

	args := []interface{}{}
	argIndex := 1

	if userID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argIndex)
		args = append(args, userID)
		argIndex++
	}

	if symbol != "" {
		query += fmt.Sprintf(" AND symbol = $%d", argIndex)
		args = append(args, symbol)
		argIndex++
	}

	if startTime > 0 {
		query += fmt.Sprintf(" AND trade_time >= $%d", argIndex)
		args = append(args, startTime)
		argIndex++
	}

	if endTime > 0 {
		query += fmt.Sprintf(" AND trade_time <= $%d", argIndex)
		args = append(args, endTime)
		argIndex++
	}

	query += " ORDER BY trade_time DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade fills: %w", err)
	}
	defer rows.Close()

	var fills []TradeFill
	for rows.Next() {
		var fill TradeFill
		err := rows.Scan(
			&fill.ID,
			&fill.UserID,
			&fill.TradeID,
			&fill.OrderID,
			&fill.ClientOrderID,
			&fill.Symbol,
			&fill.Side,
			&fill.Price,
			&fill.Quantity,
			&fill.Fee,
			&fill.TradeTime,
			&fill.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade fill: %w", err)
		}
		fills = append(fills, fill)
	}

	return fills, rows.Err()
}
