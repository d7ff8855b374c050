package postgres

import (
	"context"
	"errors"
	"fmt"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Store) RecordClick(ctx context.Context, params store.RecordClickParams) (*models.EngagementResult, error) {
	if params.CommissionRate.IsNegative() || params.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: commission rate %s out of range", store.ErrInvalidInput, params.CommissionRate.String())
	}

	result := &models.EngagementResult{
		UserId:   params.UserId,
		AdId:     params.AdId,
		Credited: decimal.Zero,
	}

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var rewardStr string
		err := tx.QueryRow(ctx, "SELECT reward::text FROM ads WHERE id = $1", params.AdId).Scan(&rewardStr)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: ad %d", store.ErrNotFound, params.AdId)
		}
		if err != nil {
			return fmt.Errorf("unable to query ad reward: %w", err)
		}
		reward, err := parseDecimal("reward", rewardStr)
		if err != nil {
			return err
		}

		// A concurrent insert of the same pair blocks here until the other transaction ends
		err = tx.QueryRow(ctx, `
            INSERT INTO clicks (user_id, ad_id)
            VALUES ($1, $2)
            ON CONFLICT (user_id, ad_id) DO NOTHING
            RETURNING id
        `, params.UserId, params.AdId).Scan(&result.ClickId)
		if errors.Is(err, pgx.ErrNoRows) {
			result.AlreadyRecorded = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("unable to insert click: %w", err)
		}

		if _, err := tx.Exec(ctx, "INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING", params.UserId); err != nil {
			return fmt.Errorf("unable to provision user: %w", err)
		}

		commission := reward.Mul(params.CommissionRate)
		if commission.IsPositive() {
			before, _, err := lockBalance(ctx, tx, params.UserId)
			if err != nil {
				return err
			}
			err = applyChange(ctx, tx, before, balanceChange{
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

	if !result.AlreadyRecorded {
		zap.L().Info("Click recorded",
			zap.Int64("user_id", params.UserId),
			zap.Int64("ad_id", params.AdId),
			zap.Int64("click_id", result.ClickId),
			zap.String("credited", result.Credited.String()))
	}
	return result, nil
}
