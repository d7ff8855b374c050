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
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SubledgerService keeps the balance audit trail next to the users table
type SubledgerService struct {
	db *sql.DB
}

func NewSubledgerService(db *sql.DB) *SubledgerService {
	return &SubledgerService{
		db: db,
	}
}

func (s *SubledgerService) InitSchema(ctx context.Context) error {
	schema := `
	-- Balance Transactions (Audit Trail)
	CREATE TABLE IF NOT EXISTS balance_transactions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		transaction_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		balance_before TEXT NOT NULL,
		balance_after TEXT NOT NULL,
		reference TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_balance_transactions_user_id ON balance_transactions(user_id);
	CREATE INDEX IF NOT EXISTS idx_balance_transactions_created_at ON balance_transactions(created_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// balanceChange describes one mutation of a user's balance inside an open transaction
type balanceChange struct {
	UserId          int64
	TransactionType string
	Amount          decimal.Decimal
	Reference       string
}

// applyInTx applies a balance change and writes its audit row. The user row
// must already exist.
func (s *SubledgerService) applyInTx(ctx context.Context, tx *sql.Tx, change balanceChange) (*models.Transaction, error) {
	before, err := balanceInTx(ctx, tx, change.UserId)
	if err != nil {
		return nil, err
	}

	after := before.Add(change.Amount)
	if after.IsNegative() {
		return nil, fmt.Errorf("%w: balance %s cannot absorb %s", store.ErrInsufficientBalance, before.String(), change.Amount.String())
	}

	if _, err := tx.ExecContext(ctx, queryUpdateBalance, after.String(), change.UserId); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	record := &models.Transaction{
		Id:              uuid.New().String(),
		UserId:          change.UserId,
		TransactionType: change.TransactionType,
		Amount:          change.Amount,
		BalanceBefore:   before,
		BalanceAfter:    after,
		Reference:       change.Reference,
		CreatedAt:       time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, queryInsertTransaction,
		record.Id, record.UserId, record.TransactionType, record.Amount.String(),
		record.BalanceBefore.String(), record.BalanceAfter.String(), record.Reference, record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert audit transaction: %w", err)
	}

	zap.L().Debug("Balance updated",
		zap.Int64("user_id", change.UserId),
		zap.String("type", change.TransactionType),
		zap.String("amount", change.Amount.String()),
		zap.String("balance_before", before.String()),
		zap.String("balance_after", after.String()))

	return record, nil
}

// balanceInTx reads the user's balance inside tx. A missing user row reads as zero.
func balanceInTx(ctx context.Context, tx *sql.Tx, userId int64) (decimal.Decimal, error) {
	var balanceStr string
	err := tx.QueryRowContext(ctx, queryGetBalance, userId).Scan(&balanceStr)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read balance: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
	}
	return balance, nil
}

// GetBalance returns the current balance for a user
func (s *SubledgerService) GetBalance(ctx context.Context, userId int64) (decimal.Decimal, error) {
	var balanceStr string
	err := s.db.QueryRowContext(ctx, queryGetBalance, userId).Scan(&balanceStr)
	if errors.Is(err, sql.ErrNoRows) {
		// No user row means zero balance
		return decimal.Zero, nil
	}
	if err != nil {
		zap.L().Error("Failed to get balance", zap.Int64("user_id", userId), zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		zap.L().Error("Failed to parse balance", zap.String("balance_str", balanceStr), zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to parse balance: %w", err)
	}

	return balance, nil
}

// GetTransactionHistory returns audit rows for a user, newest first
func (s *SubledgerService) GetTransactionHistory(ctx context.Context, userId int64, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		return []models.Transaction{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, queryGetTransactionHistory, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction history: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	transactions := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		var amountStr, beforeStr, afterStr string
		var reference sql.NullString
		if err := rows.Scan(&t.Id, &t.UserId, &t.TransactionType, &amountStr, &beforeStr, &afterStr, &reference, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if t.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
		}
		if t.BalanceBefore, err = decimal.NewFromString(beforeStr); err != nil {
			return nil, fmt.Errorf("failed to parse balance_before '%s': %w", beforeStr, err)
		}
		if t.BalanceAfter, err = decimal.NewFromString(afterStr); err != nil {
			return nil, fmt.Errorf("failed to parse balance_after '%s': %w", afterStr, err)
		}
		t.Reference = reference.String

		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return transactions, nil
}

// ReconcileBalance verifies that the current balance matches the sum of the audit trail
func (s *SubledgerService) ReconcileBalance(ctx context.Context, userId int64) error {
	zap.L().Info("Reconciling balance", zap.Int64("user_id", userId))

	currentBalance, err := s.GetBalance(ctx, userId)
	if err != nil {
		return fmt.Errorf("failed to get current balance: %w", err)
	}

	// Amounts are TEXT, so the sum is computed in decimal rather than in SQL
	rows, err := s.db.QueryContext(ctx, queryGetTransactionAmounts, userId)
	if err != nil {
		return fmt.Errorf("failed to load transaction amounts: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	calculatedBalance := decimal.Zero
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return fmt.Errorf("failed to scan amount: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
		}
		calculatedBalance = calculatedBalance.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating amount rows: %w", err)
	}

	if !currentBalance.Equal(calculatedBalance) {
		zap.L().Error("Balance reconciliation failed",
			zap.Int64("user_id", userId),
			zap.String("current_balance", currentBalance.String()),
			zap.String("calculated_balance", calculatedBalance.String()),
			zap.String("difference", currentBalance.Sub(calculatedBalance).String()))
		return fmt.Errorf("balance mismatch: current=%s, calculated=%s", currentBalance.String(), calculatedBalance.String())
	}

	zap.L().Info("Balance reconciliation successful",
		zap.Int64("user_id", userId),
		zap.String("balance", currentBalance.String()))
	return nil
}
