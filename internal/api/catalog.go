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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AddAd appends an ad to the catalog
func (s *LedgerService) AddAd(ctx context.Context, text, destination string, reward decimal.Decimal) (*models.Ad, error) {
	ad, err := s.db.AddAd(ctx, store.AddAdParams{
		Text:        text,
		Destination: destination,
		Reward:      reward,
	})
	if err != nil {
		if !errors.Is(err, store.ErrInvalidAd) {
			zap.L().Error("Failed to add ad", zap.Error(err))
		}
		return nil, fmt.Errorf("failed to add ad: %w", err)
	}
	return ad, nil
}

func (s *LedgerService) GetAd(ctx context.Context, adId int64) (*models.Ad, error) {
	return s.db.GetAd(ctx, adId)
}

// ListRecentAds returns up to n ads, most recent first. A non-positive n uses the configured list size.
func (s *LedgerService) ListRecentAds(ctx context.Context, n int) ([]models.Ad, error) {
	if n <= 0 {
		n = s.cfg.AdListLimit
	}

	ads, err := s.db.ListRecentAds(ctx, n)
	if err != nil {
		zap.L().Error("Failed to list ads", zap.Int("limit", n), zap.Error(err))
		return nil, fmt.Errorf("failed to list ads: %w", err)
	}
	return ads, nil
}
