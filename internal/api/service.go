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

package api

import (
	"context"
	"fmt"

	"ad-rewards-go/internal/metrics"
	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LedgerService is shared by every ingress adapter. It holds no state beyond
// configuration; all shared state lives behind the store.
type LedgerService struct {
	db      store.LedgerStore
	cfg     models.LedgerConfig
	metrics *metrics.Metrics
}

// NewLedgerService builds the service. m may be nil.
func NewLedgerService(db store.LedgerStore, cfg models.LedgerConfig, m *metrics.Metrics) *LedgerService {
	return &LedgerService{
		db:      db,
		cfg:     cfg,
		metrics: m,
	}
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Currency is the display unit for balances and rewards
func (s *LedgerService) Currency() string {
	return s.cfg.Currency
}

func (s *LedgerService) MinWithdrawal() decimal.Decimal {
	return s.cfg.MinWithdrawal
}

// FormatAmount renders an amount rounded to two places with the currency, e.g. "30 BDT"
func (s *LedgerService) FormatAmount(amount decimal.Decimal) string {
	return amount.Round(2).String() + " " + s.cfg.Currency
}

func (s *LedgerService) commissionRate() decimal.Decimal {
	return s.cfg.CommissionPercent.Div(hundred)
}
