package postgres

import (
	"context"
	"fmt"

	"ad-rewards-go/internal/models"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func (s *Store) CreateUser(ctx context.Context, userId int64) (bool, error) {
	_, err := s.pool.Exec(ctx, "INSERT INTO users (id) VALUES ($1)", userId)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("unable to insert user: %w", err)
	}
	zap.L().Info("User created", zap.Int64("user_id", userId))
	return true, nil
}

func (s *Store) DeleteUser(ctx context.Context, userId int64) (bool, error) {
	deleted := false
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		balance, found, err := lockBalance(ctx, tx, userId)
		if err != nil || !found {
			return err
		}

		if balance.IsPositive() {
			err := applyChange(ctx, tx, balance, balanceChange{
				UserId:          userId,
				TransactionType: models.TransactionTypeForfeit,
				Amount:          balance.Neg(),
				Reference:       "unsubscribe",
			})
			if err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, "DELETE FROM users WHERE id = $1", userId); err != nil {
			return fmt.Errorf("unable to delete user: %w", err)
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func (s *Store) GetUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT id, balance::text, created_at, updated_at
        FROM users
        ORDER BY id
    `)
	if err != nil {
		return nil, fmt.Errorf("unable to query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		var balanceStr string
		if err := rows.Scan(&u.Id, &balanceStr, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan user row: %w", err)
		}
		if u.Balance, err = parseDecimal("balance", balanceStr); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("unable to count users: %w", err)
	}
	return count, nil
}
