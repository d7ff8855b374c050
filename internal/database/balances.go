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

package database

import (
	"context"
	"time"

	"ad-rewards-go/internal/models"

	"github.com/shopspring/decimal"
)

func (s *Service) GetBalance(ctx context.Context, userId int64) (decimal.Decimal, error) {
	return s.subledger.GetBalance(ctx, userId)
}

func (s *Service) GetTransactionHistory(ctx context.Context, userId int64, limit, offset int) ([]models.Transaction, error) {
	return s.subledger.GetTransactionHistory(ctx, userId, limit, offset)
}

func (s *Service) ReconcileUserBalance(ctx context.Context, userId int64) error {
	return s.subledger.ReconcileBalance(ctx, userId)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
