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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"ad-rewards-go/internal/api"
	"ad-rewards-go/internal/common"
	"ad-rewards-go/internal/config"
	"ad-rewards-go/internal/metrics"
	"ad-rewards-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type adRequest struct {
	text        string
	destination string
	reward      decimal.Decimal
}

func parseAndValidateFlags() (*adRequest, error) {
	textFlag := flag.String("text", "", "Ad text shown to subscribers (required)")
	urlFlag := flag.String("url", "", "Destination link (required)")
	rewardFlag := flag.String("reward", "", "Reward credited per first click, before commission (required)")
	flag.Parse()

	if strings.TrimSpace(*textFlag) == "" || strings.TrimSpace(*urlFlag) == "" || *rewardFlag == "" {
		return nil, fmt.Errorf("all flags are required: --text, --url, --reward")
	}

	reward, err := decimal.NewFromString(*rewardFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid reward format: %w", err)
	}

	if !reward.IsPositive() {
		return nil, fmt.Errorf("reward must be greater than zero")
	}

	return &adRequest{
		text:        *textFlag,
		destination: *urlFlag,
		reward:      reward,
	}, nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Fatal("Invalid arguments", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	db, err := common.InitializeStoreOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize ledger store", zap.Error(err))
	}
	defer db.Close()

	ledger := api.NewLedgerService(db, cfg.Ledger, metrics.New())

	ad, err := ledger.AddAd(ctx, req.text, req.destination, req.reward)
	if err != nil {
		if errors.Is(err, store.ErrInvalidAd) {
			zap.L().Fatal("Ad rejected", zap.Error(err))
		}
		zap.L().Fatal("Failed to add ad", zap.Error(err))
	}

	fmt.Println()
	common.PrintHeader("AD CREATED", common.DefaultWidth)
	fmt.Printf("ID:     %d\n", ad.Id)
	fmt.Printf("Text:   %s\n", ad.Text)
	fmt.Printf("URL:    %s\n", ad.Destination)
	fmt.Printf("Reward: %s\n", ledger.FormatAmount(ad.Reward))
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("Ad created successfully", zap.Int64("id", ad.Id))
}
