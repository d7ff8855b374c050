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
	"fmt"

	"ad-rewards-go/internal/models"

	"go.uber.org/zap"
)

// Subscribe provisions a zero balance user. It reports whether the user is new.
func (s *LedgerService) Subscribe(ctx context.Context, userId int64) (bool, error) {
	created, err := s.db.CreateUser(ctx, userId)
	if err != nil {
		return false, fmt.Errorf("failed to subscribe user: %w", err)
	}
	return created, nil
}

// Unsubscribe removes the user and forfeits any remaining balance. Engagement
// history is kept, so ads already clicked never pay out again.
func (s *LedgerService) Unsubscribe(ctx context.Context, userId int64) (bool, error) {
	deleted, err := s.db.DeleteUser(ctx, userId)
	if err != nil {
		return false, fmt.Errorf("failed to unsubscribe user: %w", err)
	}
	if deleted {
		zap.L().Info("User unsubscribed", zap.Int64("user_id", userId))
	}
	return deleted, nil
}

func (s *LedgerService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.db.GetUsers(ctx)
}

func (s *LedgerService) Stats(ctx context.Context) (*models.Stats, error) {
	users, err := s.db.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	ads, err := s.db.CountAds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count ads: %w", err)
	}
	return &models.Stats{Users: users, Ads: ads}, nil
}
