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

const (
	outcomeCredited  = "credited"
	outcomeDuplicate = "duplicate"
	outcomeRejected  = "rejected"
	outcomeError     = "error"
)

// RecordEngagement registers a (user, ad) engagement and credits the
// commission on the first one. Later engagements report AlreadyRecorded.
func (s *LedgerService) RecordEngagement(ctx context.Context, userId, adId int64) (*models.EngagementResult, error) {
	result, err := s.db.RecordClick(ctx, store.RecordClickParams{
		UserId:         userId,
		AdId:           adId,
		CommissionRate: s.commissionRate(),
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidInput) {
			s.metrics.ObserveEngagement(outcomeRejected, 0)
		} else {
			s.metrics.ObserveEngagement(outcomeError, 0)
			zap.L().Error("Engagement processing failed",
				zap.Int64("user_id", userId),
				zap.Int64("ad_id", adId),
				zap.Error(err))
		}
		return nil, fmt.Errorf("failed to record engagement: %w", err)
	}

	if result.AlreadyRecorded {
		s.metrics.ObserveEngagement(outcomeDuplicate, 0)
	} else {
		credited, _ := result.Credited.Float64()
		s.metrics.ObserveEngagement(outcomeCredited, credited)
	}
	return result, nil
}
