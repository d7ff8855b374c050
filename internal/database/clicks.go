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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordClick registers the first engagement of a user with an ad and credits
// the commission. Repeated engagements are reported with AlreadyRecorded and
// change nothing.
func (s *Service) RecordClick(ctx context.Context, params store.RecordClickParams) (*models.EngagementResult, error) {
	if params.CommissionRate.IsNegative() || params.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: commission rate %s out of range", store.ErrInvalidInput, params.CommissionRate.String())
	}

	result := &models.EngagementResult{
		UserId:   params.UserId,
		AdId:     params.AdId,
		Credited: decimal.Zero,
	}

	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		var rewardStr string
		err := tx.QueryRowContext(ctx, queryGetAdReward, params.AdId).Scan(&rewardStr)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: ad %d", store.ErrNotFound, params.AdId)
		}
		if err != nil {
			return fmt.Errorf("unable to query ad reward: %w", err)
		}

		reward, err := decimal.NewFromString(rewardStr)
		if err != nil {
			return fmt.Errorf("failed to parse reward '%s': %w", rewardStr, err)
		}

		res, err := tx.ExecContext(ctx, queryInsertClick, params.UserId, params.AdId, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("unable to insert click: %w", err)
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("unable to get rows affected: %w", err)
		}
		if inserted == 0 {
			result.AlreadyRecorded = true
			return nil
		}

		result.ClickId, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("unable to read click id: %w", err)
		}

		if _, err := insertUserInTx(ctx, tx, params.UserId); err != nil {
			return err
		}

		commission := reward.Mul(params.CommissionRate)
		if commission.IsPositive() {
			_, err := s.subledger.applyInTx(ctx, tx, balanceChange{
				UserId:          params.UserId,
				TransactionType: models.TransactionTypeCommission,
				Amount:          commission,
				Reference:       fmt.Sprintf("click:%d", result.ClickId),
			})
			if err != nil {
				return err
			}
		}
		result.Credited = commission
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.AlreadyRecorded {
		zap.L().Debug("Duplicate click ignored",
			zap.Int64("user_id", params.UserId),
			zap.Int64("ad_id", params.AdId))
	} else {
		zap.L().Info("Click recorded",
			zap.Int64("user_id", params.UserId),
			zap.Int64("ad_id", params.AdId),
			zap.Int64("click_id", result.ClickId),
			zap.String("credited", result.Credited.String()))
	}
	return result, nil
}
