/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ad-rewards-go/internal/models"

	"github.com/shopspring/decimal"
)

const (
	BackendSqlite   = "sqlite"
	BackendPostgres = "postgres"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	readHeaderTimeout, err := getEnvDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	commissionPercent, err := getEnvDecimal("COMMISSION_PERCENT", decimal.NewFromInt(30))
	if err != nil {
		return nil, err
	}
	if commissionPercent.IsNegative() || commissionPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("COMMISSION_PERCENT must be between 0 and 100, got %s", commissionPercent.String())
	}

	minWithdrawal, err := getEnvDecimal("MIN_WITHDRAWAL", decimal.NewFromInt(50))
	if err != nil {
		return nil, err
	}
	if minWithdrawal.IsNegative() {
		return nil, fmt.Errorf("MIN_WITHDRAWAL cannot be negative, got %s", minWithdrawal.String())
	}

	adminId, err := getEnvInt64("ADMIN_ID", 123456789)
	if err != nil {
		return nil, err
	}

	backend := strings.ToLower(getEnvString("LEDGER_BACKEND", BackendSqlite))
	if backend != BackendSqlite && backend != BackendPostgres {
		return nil, fmt.Errorf("unsupported LEDGER_BACKEND %q (expected %s or %s)", backend, BackendSqlite, BackendPostgres)
	}

	databaseUrl := getEnvString("DATABASE_URL", "")
	if backend == BackendPostgres && databaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when LEDGER_BACKEND is %s", BackendPostgres)
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Backend:         backend,
			Path:            getEnvString("DATABASE_PATH", "data.db"),
			Url:             databaseUrl,
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Ledger: models.LedgerConfig{
			CommissionPercent: commissionPercent,
			MinWithdrawal:     minWithdrawal,
			Currency:          getEnvString("CURRENCY", "BDT"),
			AdListLimit:       getEnvInt("ADS_LIST_LIMIT", 5),
			AdsFile:           getEnvString("ADS_FILE", "ads.yaml"),
		},
		Server: models.ServerConfig{
			Port:               getEnvString("PORT", "5000"),
			BaseURL:            strings.TrimRight(getEnvString("BASE_URL", ""), "/"),
			ReadHeaderTimeout:  readHeaderTimeout,
			ShutdownTimeout:    shutdownTimeout,
			ClickRatePerMinute: getEnvFloat("CLICK_RATE_PER_MINUTE", 120),
			ClickBurst:         getEnvInt("CLICK_BURST", 20),
		},
		Bot: models.BotConfig{
			Token:       getEnvString("BOT_TOKEN", ""),
			AdminId:     adminId,
			PollTimeout: getEnvInt("BOT_POLL_TIMEOUT", 60),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	if value := os.Getenv(key); value != "" {
		d, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid decimal for %s: %q (%w)", key, value, err)
		}
		return d, nil
	}
	return defaultValue, nil
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	if value := os.Getenv(key); value != "" {
		v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %q (%w)", key, value, err)
		}
		return v, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
