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

	"ad-rewards-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	zap.L().Debug("Querying users")

	rows, err := s.db.QueryContext(ctx, queryGetUsers)
	if err != nil {
		zap.L().Error("Failed to query users", zap.Error(err))
		return nil, fmt.Errorf("unable to query users: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	users := []models.User{}
	for rows.Next() {
		var user models.User
		var balanceStr string
		err := rows.Scan(&user.Id, &balanceStr, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			zap.L().Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan user row: %w", err)
		}

		user.Balance, err = decimal.NewFromString(balanceStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
		}

		users = append(users, user)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during user row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	zap.L().Debug("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}

func (s *Service) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, queryCountUsers).Scan(&count); err != nil {
		return 0, fmt.Errorf("unable to count users: %w", err)
	}
	return count, nil
}

// CreateUser provisions a zero balance row. It reports false when the user already exists.
func (s *Service) CreateUser(ctx context.Context, userId int64) (bool, error) {
	var created bool
	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		var err error
		created, err = insertUserInTx(ctx, tx, userId)
		return err
	})
	if err != nil {
		zap.L().Error("Failed to create user", zap.Int64("user_id", userId), zap.Error(err))
		return false, err
	}

	if created {
		zap.L().Info("User created", zap.Int64("user_id", userId))
	}
	return created, nil
}

// DeleteUser removes a subscriber. A positive balance is forfeited with an
// audit row before the user row is dropped. Click history is kept.
func (s *Service) DeleteUser(ctx context.Context, userId int64) (bool, error) {
	var deleted bool
	var forfeited decimal.Decimal

	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		exists, err := userExistsInTx(ctx, tx, userId)
		if err != nil || !exists {
			return err
		}

		balance, err := balanceInTx(ctx, tx, userId)
		if err != nil {
			return err
		}

		if balance.IsPositive() {
			_, err := s.subledger.applyInTx(ctx, tx, balanceChange{
				UserId:          userId,
				TransactionType: models.TransactionTypeForfeit,
				Amount:          balance.Neg(),
				Reference:       "unsubscribe",
			})
			if err != nil {
				return err
			}
			forfeited = balance
		}

		if _, err := tx.ExecContext(ctx, queryDeleteUser, userId); err != nil {
			return fmt.Errorf("unable to delete user: %w", err)
		}
		deleted = true
		return nil
	})
	if err != nil {
		zap.L().Error("Failed to delete user", zap.Int64("user_id", userId), zap.Error(err))
		return false, err
	}

	if deleted {
		zap.L().Info("User deleted",
			zap.Int64("user_id", userId),
			zap.String("forfeited", forfeited.String()))
	}
	return deleted, nil
}

func insertUserInTx(ctx context.Context, tx *sql.Tx, userId int64) (bool, error) {
	result, err := tx.ExecContext(ctx, queryInsertUser, userId)
	if err != nil {
		return false, fmt.Errorf("unable to insert user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unable to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func userExistsInTx(ctx context.Context, tx *sql.Tx, userId int64) (bool, error) {
	var balanceStr string
	err := tx.QueryRowContext(ctx, queryGetBalance, userId).Scan(&balanceStr)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("unable to query user: %w", err)
	}
	return true, nil
}
