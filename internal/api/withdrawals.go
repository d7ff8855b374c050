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
	"errors"
	"fmt"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"go.uber.org/zap"
)

// RequestWithdrawal withdraws the user's entire balance into a pending
// request. The user is provisioned first so a rejected request still leaves
// a known subscriber behind.
func (s *LedgerService) RequestWithdrawal(ctx context.Context, userId int64) (*models.WithdrawalRequest, error) {
	if _, err := s.db.CreateUser(ctx, userId); err != nil {
		s.metrics.ObserveWithdrawal(outcomeError)
		zap.L().Error("Failed to provision user for withdrawal", zap.Int64("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}

	request, err := s.db.CreateWithdrawal(ctx, store.CreateWithdrawalParams{
		UserId:  userId,
		Minimum: s.cfg.MinWithdrawal,
	})
	if err != nil {
		if errors.Is(err, store.ErrInsufficientBalance) {
			s.metrics.ObserveWithdrawal("insufficient_balance")
			zap.L().Info("Withdrawal rejected", zap.Int64("user_id", userId), zap.Error(err))
		} else {
			s.metrics.ObserveWithdrawal(outcomeError)
			zap.L().Error("Withdrawal request failed", zap.Int64("user_id", userId), zap.Error(err))
		}
		return nil, fmt.Errorf("failed to request withdrawal: %w", err)
	}

	s.metrics.ObserveWithdrawal("requested")
	return request, nil
}

// ApproveWithdrawal marks a pending request approved. It has no balance side effect.
func (s *LedgerService) ApproveWithdrawal(ctx context.Context, requestId int64) (*models.WithdrawalRequest, error) {
	request, err := s.db.ApproveWithdrawal(ctx, requestId)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.metrics.ObserveApproval("not_found")
		case errors.Is(err, store.ErrAlreadyApproved):
			s.metrics.ObserveApproval("already_approved")
		default:
			s.metrics.ObserveApproval(outcomeError)
			zap.L().Error("Withdrawal approval failed", zap.Int64("request_id", requestId), zap.Error(err))
		}
		return nil, fmt.Errorf("failed to approve withdrawal: %w", err)
	}

	s.metrics.ObserveApproval("approved")
	return request, nil
}

func (s *LedgerService) GetWithdrawal(ctx context.Context, requestId int64) (*models.WithdrawalRequest, error) {
	return s.db.GetWithdrawal(ctx, requestId)
}

// ListWithdrawals lists requests newest first; an empty status lists all of them
func (s *LedgerService) ListWithdrawals(ctx context.Context, status string, limit int) ([]models.WithdrawalRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	requests, err := s.db.ListWithdrawals(ctx, status, limit)
	if err != nil {
		zap.L().Error("Failed to list withdrawals", zap.String("status", status), zap.Error(err))
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return requests, nil
}
