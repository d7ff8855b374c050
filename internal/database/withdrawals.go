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
	"ad-rewards-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateWithdrawal debits the user's entire balance and opens a pending
// request for that amount. Nothing is written when the balance is below the minimum.
func (s *Service) CreateWithdrawal(ctx context.Context, params store.CreateWithdrawalParams) (*models.WithdrawalRequest, error) {
	var request *models.WithdrawalRequest

	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		balance, err := balanceInTx(ctx, tx, params.UserId)
		if err != nil {
			return err
		}

		if !balance.IsPositive() || balance.LessThan(params.Minimum) {
			return fmt.Errorf("%w: balance %s, minimum %s", store.ErrInsufficientBalance, balance.String(), params.Minimum.String())
		}

		createdAt := nowUTC()
		res, err := tx.ExecContext(ctx, queryInsertWithdrawal, params.UserId, balance.String(), models.WithdrawalStatusPending, createdAt)
		if err != nil {
			return fmt.Errorf("unable to insert withdrawal request: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("unable to read withdrawal id: %w", err)
		}

		_, err = s.subledger.applyInTx(ctx, tx, balanceChange{
			UserId:          params.UserId,
			TransactionType: models.TransactionTypeWithdrawal,
			Amount:          balance.Neg(),
			Reference:       fmt.Sprintf("withdrawal:%d", id),
		})
		if err != nil {
			return err
		}

		request = &models.WithdrawalRequest{
			Id:        id,
			UserId:    params.UserId,
			Amount:    balance,
			Status:    models.WithdrawalStatusPending,
			CreatedAt: createdAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Withdrawal requested",
		zap.Int64("request_id", request.Id),
		zap.Int64("user_id", request.UserId),
		zap.String("amount", request.Amount.String()))
	return request, nil
}

// ApproveWithdrawal moves a pending request to approved. Approval is terminal.
func (s *Service) ApproveWithdrawal(ctx context.Context, requestId int64) (*models.WithdrawalRequest, error) {
	var request *models.WithdrawalRequest

	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		current, err := scanWithdrawal(tx.QueryRowContext(ctx, queryGetWithdrawal, requestId))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: withdrawal request %d", store.ErrNotFound, requestId)
		}
		if err != nil {
			return fmt.Errorf("unable to query withdrawal request: %w", err)
		}

		if current.Status == models.WithdrawalStatusApproved {
			return fmt.Errorf("%w: withdrawal request %d", store.ErrAlreadyApproved, requestId)
		}

		approvedAt := nowUTC()
		res, err := tx.ExecContext(ctx, queryApproveWithdrawal,
			models.WithdrawalStatusApproved, approvedAt, requestId, models.WithdrawalStatusPending)
		if err != nil {
			return fmt.Errorf("unable to approve withdrawal request: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("unable to get rows affected: %w", err)
		} else if n == 0 {
			return fmt.Errorf("%w: withdrawal request %d", store.ErrAlreadyApproved, requestId)
		}

		current.Status = models.WithdrawalStatusApproved
		current.ApprovedAt = &approvedAt
		request = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Withdrawal approved",
		zap.Int64("request_id", request.Id),
		zap.Int64("user_id", request.UserId),
		zap.String("amount", request.Amount.String()))
	return request, nil
}

func (s *Service) GetWithdrawal(ctx context.Context, requestId int64) (*models.WithdrawalRequest, error) {
	request, err := scanWithdrawal(s.db.QueryRowContext(ctx, queryGetWithdrawal, requestId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: withdrawal request %d", store.ErrNotFound, requestId)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query withdrawal request: %w", err)
	}
	return request, nil
}

// ListWithdrawals returns requests newest first. An empty status matches every request.
func (s *Service) ListWithdrawals(ctx context.Context, status string, limit int) ([]models.WithdrawalRequest, error) {
	if limit <= 0 {
		return []models.WithdrawalRequest{}, nil
	}

	rows, err := s.db.QueryContext(ctx, queryListWithdrawals, status, status, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to query withdrawal requests: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	requests := []models.WithdrawalRequest{}
	for rows.Next() {
		request, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan withdrawal row: %w", err)
		}
		requests = append(requests, *request)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating withdrawal rows: %w", err)
	}
	return requests, nil
}

func scanWithdrawal(row rowScanner) (*models.WithdrawalRequest, error) {
	var request models.WithdrawalRequest
	var amountStr string
	var approvedAt sql.NullTime
	if err := row.Scan(&request.Id, &request.UserId, &amountStr, &request.Status, &request.CreatedAt, &approvedAt); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	request.Amount = amount
	if approvedAt.Valid {
		t := approvedAt.Time
		request.ApprovedAt = &t
	}
	return &request, nil
}
