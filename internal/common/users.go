package common

import (
	"context"
	"fmt"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"go.uber.org/zap"
)

// InitializeUsers retrieves users for command-line reports.
// A non-zero userFilter returns just that user, reading an unknown id as a zero balance.
func InitializeUsers(ctx context.Context, db store.LedgerStore, userFilter int64, logger *zap.Logger) ([]models.User, error) {
	var users []models.User

	if userFilter != 0 {
		logger.Info("Looking up user", zap.Int64("user_id", userFilter))
		balance, err := db.GetBalance(ctx, userFilter)
		if err != nil {
			return nil, fmt.Errorf("failed to get balance: %w", err)
		}
		users = append(users, models.User{Id: userFilter, Balance: balance})
	} else {
		allUsers, err := db.GetUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get users: %w", err)
		}
		users = allUsers
	}

	logger.Info("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}
