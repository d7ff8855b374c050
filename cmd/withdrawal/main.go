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

	"ad-rewards-go/internal/api"
	"ad-rewards-go/internal/common"
	"ad-rewards-go/internal/config"
	"ad-rewards-go/internal/metrics"
	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"go.uber.org/zap"
)

func printWithdrawals(requests []models.WithdrawalRequest, ledger *api.LedgerService) {
	for i, req := range requests {
		isLast := i == len(requests)-1
		fmt.Printf("%s #%-6d user %-14d %14s  %-8s  %s\n",
			common.BoxPrefix(isLast),
			req.Id,
			req.UserId,
			ledger.FormatAmount(req.Amount),
			req.Status,
			common.FormatTimestamp(&req.CreatedAt))
		if req.ApprovedAt != nil {
			fmt.Printf("%s approved at %s\n", common.BoxDetailPrefix(isLast), common.FormatTimestamp(req.ApprovedAt))
		}
	}
}

func approve(ctx context.Context, ledger *api.LedgerService, requestId int64) {
	req, err := ledger.ApproveWithdrawal(ctx, requestId)
	switch {
	case errors.Is(err, store.ErrNotFound):
		zap.L().Fatal("Withdrawal request not found", zap.Int64("request_id", requestId))
	case errors.Is(err, store.ErrAlreadyApproved):
		zap.L().Fatal("Withdrawal request already approved", zap.Int64("request_id", requestId))
	case err != nil:
		zap.L().Fatal("Failed to approve withdrawal", zap.Error(err))
	}

	fmt.Println()
	common.PrintHeader("WITHDRAWAL APPROVED", common.DefaultWidth)
	fmt.Printf("Request: #%d\n", req.Id)
	fmt.Printf("User:    %d\n", req.UserId)
	fmt.Printf("Amount:  %s\n", ledger.FormatAmount(req.Amount))
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	approveFlag := flag.Int64("approve", 0, "Approve the withdrawal request with this id")
	statusFlag := flag.String("status", models.WithdrawalStatusPending, "Filter listed requests by status (empty for all)")
	limitFlag := flag.Int("limit", 50, "Maximum number of requests to list")
	flag.Parse()

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

	if *approveFlag != 0 {
		approve(ctx, ledger, *approveFlag)
		return
	}

	requests, err := ledger.ListWithdrawals(ctx, *statusFlag, *limitFlag)
	if err != nil {
		zap.L().Fatal("Failed to list withdrawals", zap.Error(err))
	}

	title := "WITHDRAWAL REQUESTS"
	if *statusFlag != "" {
		title = fmt.Sprintf("WITHDRAWAL REQUESTS (%s)", *statusFlag)
	}
	common.PrintHeader(title, common.WideWidth)
	printWithdrawals(requests, ledger)
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d requests", len(requests)), common.WideWidth)
}
