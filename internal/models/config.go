package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Ledger   LedgerConfig
	Server   ServerConfig
	Bot      BotConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Backend         string // "sqlite" or "postgres"
	Path            string
	Url             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// LedgerConfig holds the reward and withdrawal rules, fixed at process start
type LedgerConfig struct {
	CommissionPercent decimal.Decimal
	MinWithdrawal     decimal.Decimal
	Currency          string
	AdListLimit       int
	AdsFile           string
}

// ServerConfig holds the engagement callback server settings
type ServerConfig struct {
	Port               string
	BaseURL            string
	ReadHeaderTimeout  time.Duration
	ShutdownTimeout    time.Duration
	ClickRatePerMinute float64
	ClickBurst         int
}

// BotConfig holds Telegram bot settings
type BotConfig struct {
	Token       string
	AdminId     int64
	PollTimeout int
}
