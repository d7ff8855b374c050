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

	"ad-rewards-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetBalance returns the current balance. Unknown users read as zero and are not created.
func (s *LedgerService) GetBalance(ctx context.Context, userId int64) (decimal.Decimal, error) {
	balance, err := s.db.GetBalance(ctx, userId)
	if err != nil {
		zap.L().Error("Failed to get user balance", zap.Int64("user_id", userId), zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to retrieve balance: %w", err)
	}
	return balance, nil
}

// GetTransactionHistory returns paginated audit rows for a user, newest first
func (s *LedgerService) GetTransactionHistory(ctx context.Context, userId int64, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	transactions, err := s.db.GetTransactionHistory(ctx, userId, limit, offset)
	if err != nil {
		zap.L().Error("Failed to get transaction history", zap.Int64("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve transaction history: %w", err)
	}
	return transactions, nil
}

// ReconcileUserBalance checks the stored balance against the audit trail
func (s *LedgerService) ReconcileUserBalance(ctx context.Context, userId int64) error {
	return s.db.ReconcileUserBalance(ctx, userId)
}
