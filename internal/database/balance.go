package database

import (
	"fmt"
	"time"

	"github.com/signalalpha/hitbtc-go/pkg/hitbtc"
)

// BalanceSnapshot is the balance of one currency at one point in time.
type BalanceSnapshot struct {
	UserID    string
	Currency  string
	Available string
	Reserved  string
	TakenAt   time.Time
}

// SaveBalanceSnapshot stores balances taken at the given time in one transaction. The
// available column holds the free amount as defined by the API version.
func (db *DB) SaveBalanceSnapshot(userID string, balances []hitbtc.Balance, version hitbtc.Version, takenAt time.Time) (int, error) {
	if len(balances) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO balance_snapshots (user_id, currency, available, reserved, taken_at)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, b := range balances {
		if _, err := stmt.Exec(userID, b.Currency, b.Free(version).String(), b.Reserved.String(), takenAt); err != nil {
			return 0, fmt.Errorf("failed to save balance of %s: %w", b.Currency, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return len(balances), nil
}

// GetLatestBalances returns the most recent snapshot of a user.
func (db *DB) GetLatestBalances(userID string) ([]BalanceSnapshot, error) {
	query := `
		SELECT user_id, currency, available, reserved, taken_at
		FROM balance_snapshots
		WHERE user_id = $1
		  AND taken_at = (SELECT MAX(taken_at) FROM balance_snapshots WHERE user_id = $1)
		ORDER BY currency
	`

	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []BalanceSnapshot
	for rows.Next() {
		var s BalanceSnapshot
		if err := rows.Scan(&s.UserID, &s.Currency, &s.Available, &s.Reserved, &s.TakenAt); err != nil {
			return nil, fmt.Errorf("failed to scan balance snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}
