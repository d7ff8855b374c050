package postgres

import (
	"context"
	"errors"
	"fmt"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const withdrawalColumns = "id, user_id, amount::text, status, created_at, approved_at"

func (s *Store) CreateWithdrawal(ctx context.Context, params store.CreateWithdrawalParams) (*models.WithdrawalRequest, error) {
	var request *models.WithdrawalRequest

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		balance, _, err := lockBalance(ctx, tx, params.UserId)
		if err != nil {
			return err
		}

		if !balance.IsPositive() || balance.LessThan(params.Minimum) {
			return fmt.Errorf("%w: balance %s, minimum %s", store.ErrInsufficientBalance, balance.String(), params.Minimum.String())
		}

		request, err = scanWithdrawal(tx.QueryRow(ctx, `
            INSERT INTO withdraw_requests (user_id, amount, status)
            VALUES ($1, $2::text::numeric, $3)
            RETURNING `+withdrawalColumns,
			params.UserId, balance.String(), models.WithdrawalStatusPending))
		if err != nil {
			return fmt.Errorf("unable to insert withdrawal request: %w", err)
		}

		return applyChange(ctx, tx, balance, balanceChange{
			UserId:          params.UserId,
			TransactionType: models.TransactionTypeWithdrawal,
			Amount:          balance.Neg(),
			Reference:       fmt.Sprintf("withdrawal:%d", request.Id),
		})
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

func (s *Store) ApproveWithdrawal(ctx context.Context, requestId int64) (*models.WithdrawalRequest, error) {
	var request *models.WithdrawalRequest

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		current, err := scanWithdrawal(tx.QueryRow(ctx,
			"SELECT "+withdrawalColumns+" FROM withdraw_requests WHERE id = $1 FOR UPDATE", requestId))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: withdrawal request %d", store.ErrNotFound, requestId)
		}
		if err != nil {
			return fmt.Errorf("unable to query withdrawal request: %w", err)
		}

		if current.Status == models.WithdrawalStatusApproved {
			return fmt.Errorf("%w: withdrawal request %d", store.ErrAlreadyApproved, requestId)
		}

		request, err = scanWithdrawal(tx.QueryRow(ctx, `
            UPDATE withdraw_requests
            SET status = $2, approved_at = now()
            WHERE id = $1
            RETURNING `+withdrawalColumns,
			requestId, models.WithdrawalStatusApproved))
		if err != nil {
			return fmt.Errorf("unable to approve withdrawal request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Withdrawal approved",
		zap.Int64("request_id", request.Id),
		zap.Int64("user_id", request.UserId))
	return request, nil
}

func (s *Store) GetWithdrawal(ctx context.Context, requestId int64) (*models.WithdrawalRequest, error) {
	request, err := scanWithdrawal(s.pool.QueryRow(ctx,
		"SELECT "+withdrawalColumns+" FROM withdraw_requests WHERE id = $1", requestId))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: withdrawal request %d", store.ErrNotFound, requestId)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query withdrawal request: %w", err)
	}
	return request, nil
}

func (s *Store) ListWithdrawals(ctx context.Context, status string, limit int) ([]models.WithdrawalRequest, error) {
	if limit <= 0 {
		return []models.WithdrawalRequest{}, nil
	}

	rows, err := s.pool.Query(ctx, `
        SELECT `+withdrawalColumns+`
        FROM withdraw_requests
        WHERE ($1 = '' OR status = $1)
        ORDER BY id DESC
        LIMIT $2
    `, status, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to query withdrawal requests: %w", err)
	}
	defer rows.Close()

	requests := []models.WithdrawalRequest{}
	for rows.Next() {
		request, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan withdrawal row: %w", err)
		}
		requests = append(requests, *request)
	}
	return requests, rows.Err()
}

func scanWithdrawal(row pgx.Row) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	var amountStr string
	if err := row.Scan(&w.Id, &w.UserId, &amountStr, &w.Status, &w.CreatedAt, &w.ApprovedAt); err != nil {
		return nil, err
	}
	amount, err := parseDecimal("amount", amountStr)
	if err != nil {
		return nil, err
	}
	w.Amount = amount
	return &w, nil
}
