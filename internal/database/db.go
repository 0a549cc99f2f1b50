package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// Config holds database configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the lib/pq connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// New creates a new database connection
func New(cfg Config) (*DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return &DB{sqlDB}, nil
}

// Wrap uses an already opened connection.
func Wrap(sqlDB *sql.DB) *DB {
	return &DB{sqlDB}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

const schema = `
	CREATE TABLE IF NOT EXISTS trade_fills (
		id BIGSERIAL PRIMARY KEY,
		user_id VARCHAR(100) NOT NULL,
		trade_id VARCHAR(100) NOT NULL,
		order_id VARCHAR(100) NOT NULL,
		client_order_id VARCHAR(100),
		symbol VARCHAR(50) NOT NULL,
		side VARCHAR(10) NOT NULL,
		price DECIMAL(30, 10) NOT NULL,
		quantity DECIMAL(30, 10) NOT NULL,
		fee DECIMAL(30, 10) NOT NULL,
		trade_time BIGINT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT unique_trade_fill UNIQUE (user_id, symbol, trade_id)
	);

	CREATE INDEX IF NOT EXISTS idx_trade_fills_user_symbol_time ON trade_fills(user_id, symbol, trade_time DESC);
	CREATE INDEX IF NOT EXISTS idx_trade_fills_created_at ON trade_fills(created_at);

	CREATE TABLE IF NOT EXISTS balance_snapshots (
		id BIGSERIAL PRIMARY KEY,
		user_id VARCHAR(100) NOT NULL,
		currency VARCHAR(20) NOT NULL,
		available DECIMAL(30, 10) NOT NULL,
		reserved DECIMAL(30, 10) NOT NULL,
		taken_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_balance_snapshots_user_time ON balance_snapshots(user_id, taken_at DESC);

	CREATE TABLE IF NOT EXISTS sync_status (
		id SERIAL PRIMARY KEY,
		user_id VARCHAR(100) NOT NULL,
		symbol VARCHAR(50) NOT NULL,
		last_sync_time TIMESTAMP NOT NULL,
		last_trade_time BIGINT,
		records_count INT DEFAULT 0,
		status VARCHAR(20) DEFAULT 'success',
		error_message TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sync_status_user_symbol ON sync_status(user_id, symbol);
	CREATE INDEX IF NOT EXISTS idx_sync_status_last_sync_time ON sync_status(last_sync_time DESC);
`

// InitSchema initializes the database schema
func (db *DB) InitSchema() error {
	_, err := db.Exec(schema)
	return err
}
