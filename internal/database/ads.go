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
	"strings"
	"time"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) AddAd(ctx context.Context, params store.AddAdParams) (*models.Ad, error) {
	text := strings.TrimSpace(params.Text)
	destination := strings.TrimSpace(params.Destination)
	if text == "" || destination == "" || !params.Reward.IsPositive() {
		return nil, fmt.Errorf("%w: text, destination and a positive reward are required", store.ErrInvalidAd)
	}

	ad := &models.Ad{
		Text:        text,
		Destination: destination,
		Reward:      params.Reward,
		CreatedAt:   time.Now().UTC(),
	}

	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, queryInsertAd, ad.Text, ad.Destination, ad.Reward.String(), ad.CreatedAt)
		if err != nil {
			return fmt.Errorf("unable to insert ad: %w", err)
		}
		ad.Id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("unable to read ad id: %w", err)
		}
		return nil
	})
	if err != nil {
		zap.L().Error("Failed to add ad", zap.Error(err))
		return nil, err
	}

	zap.L().Info("Ad added",
		zap.Int64("ad_id", ad.Id),
		zap.String("url", ad.Destination),
		zap.String("reward", ad.Reward.String()))
	return ad, nil
}

func (s *Service) GetAd(ctx context.Context, adId int64) (*models.Ad, error) {
	ad, err := scanAd(s.db.QueryRowContext(ctx, queryGetAd, adId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: ad %d", store.ErrNotFound, adId)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query ad: %w", err)
	}
	return ad, nil
}

// ListRecentAds returns up to limit ads, newest first
func (s *Service) ListRecentAds(ctx context.Context, limit int) ([]models.Ad, error) {
	if limit <= 0 {
		return []models.Ad{}, nil
	}

	rows, err := s.db.QueryContext(ctx, queryListRecentAds, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to query ads: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	ads := []models.Ad{}
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan ad row: %w", err)
		}
		ads = append(ads, *ad)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ad rows: %w", err)
	}
	return ads, nil
}

func (s *Service) CountAds(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, queryCountAds).Scan(&count); err != nil {
		return 0, fmt.Errorf("unable to count ads: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAd(row rowScanner) (*models.Ad, error) {
	var ad models.Ad
	var rewardStr string
	if err := row.Scan(&ad.Id, &ad.Text, &ad.Destination, &rewardStr, &ad.CreatedAt); err != nil {
		return nil, err
	}

	reward, err := decimal.NewFromString(rewardStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reward '%s': %w", rewardStr, err)
	}
	ad.Reward = reward
	return &ad, nil
}
