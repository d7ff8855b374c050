package postgres

import (
	"context"
	"errors"
	"fmt"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type balanceChange struct {
	UserId          int64
	TransactionType string
	Amount          decimal.Decimal
	Reference       string
}

// lockBalance reads the user's balance with a row lock. found is false when
// the user row does not exist.
func lockBalance(ctx context.Context, tx pgx.Tx, userId int64) (balance decimal.Decimal, found bool, err error) {
	var balanceStr string
	err = tx.QueryRow(ctx, "SELECT balance::text FROM users WHERE id = $1 FOR UPDATE", userId).Scan(&balanceStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to lock balance: %w", err)
	}

	balance, err = parseDecimal("balance", balanceStr)
	if err != nil {
		return decimal.Zero, false, err
	}
	return balance, true, nil
}

// applyChange updates a locked user balance and appends the audit row.
func applyChange(ctx context.Context, tx pgx.Tx, before decimal.Decimal, change balanceChange) error {
	after := before.Add(change.Amount)
	if after.IsNegative() {
		return fmt.Errorf("%w: balance %s cannot absorb %s", store.ErrInsufficientBalance, before.String(), change.Amount.String())
	}

	_, err := tx.Exec(ctx, `
        UPDATE users
        SET balance = $2::text::numeric, updated_at = now()
        WHERE id = $1
    `, change.UserId, after.String())
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO balance_transactions (id, user_id, transaction_type, amount, balance_before, balance_after, reference)
        VALUES ($1, $2, $3, $4::text::numeric, $5::text::numeric, $6::text::numeric, $7)
    `, uuid.New().String(), change.UserId, change.TransactionType,
		change.Amount.String(), before.String(), after.String(), change.Reference)
	if err != nil {
		return fmt.Errorf("failed to insert audit transaction: %w", err)
	}

	zap.L().Debug("Balance updated",
		zap.Int64("user_id", change.UserId),
		zap.String("type", change.TransactionType),
		zap.String("amount", change.Amount.String()),
		zap.String("balance_before", before.String()),
		zap.String("balance_after", after.String()))
	return nil
}

func (s *Store) GetBalance(ctx context.Context, userId int64) (decimal.Decimal, error) {
	var balanceStr string
	err := s.pool.QueryRow(ctx, "SELECT balance::text FROM users WHERE id = $1", userId).Scan(&balanceStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}
	return parseDecimal("balance", balanceStr)
}

func (s *Store) GetTransactionHistory(ctx context.Context, userId int64, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		return []models.Transaction{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.pool.Query(ctx, `
        SELECT id, user_id, transaction_type, amount::text, balance_before::text, balance_after::text,
               COALESCE(reference, ''), created_at
        FROM balance_transactions
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2 OFFSET $3
    `, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction history: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		var amountStr, beforeStr, afterStr string
		if err := rows.Scan(&t.Id, &t.UserId, &t.TransactionType, &amountStr, &beforeStr, &afterStr, &t.Reference, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if t.Amount, err = parseDecimal("amount", amountStr); err != nil {
			return nil, err
		}
		if t.BalanceBefore, err = parseDecimal("balance_before", beforeStr); err != nil {
			return nil, err
		}
		if t.BalanceAfter, err = parseDecimal("balance_after", afterStr); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (s *Store) ReconcileUserBalance(ctx context.Context, userId int64) error {
	current, err := s.GetBalance(ctx, userId)
	if err != nil {
		return err
	}

	var sumStr string
	err = s.pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(amount), 0)::text FROM balance_transactions WHERE user_id = $1", userId).Scan(&sumStr)
	if err != nil {
		return fmt.Errorf("failed to calculate balance from transactions: %w", err)
	}
	calculated, err := parseDecimal("sum", sumStr)
	if err != nil {
		return err
	}

	if !current.Equal(calculated) {
		zap.L().Error("Balance reconciliation failed",
			zap.Int64("user_id", userId),
			zap.String("current_balance", current.String()),
			zap.String("calculated_balance", calculated.String()))
		return fmt.Errorf("balance mismatch: current=%s, calculated=%s", current.String(), calculated.String())
	}
	return nil
}
