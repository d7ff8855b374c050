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
	"flag"
	"fmt"

	"ad-rewards-go/internal/api"
	"ad-rewards-go/internal/common"
	"ad-rewards-go/internal/config"
	"ad-rewards-go/internal/metrics"
	"ad-rewards-go/internal/models"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers        int
	usersWithBalances int
	reconcileFailures int
}

func formatTransactionId(txId string) string {
	if txId == "" {
		return "none"
	}
	if len(txId) > 8 {
		return txId[:8] + "..."
	}
	return txId
}

func printTransaction(tx models.Transaction, isLast bool) {
	fmt.Printf("%s %-10s: %12s -> %12s (%s, ref: %s, at: %s)\n",
		common.BoxPrefix(isLast),
		tx.TransactionType,
		tx.Amount.String(),
		tx.BalanceAfter.String(),
		formatTransactionId(tx.Id),
		tx.Reference,
		common.FormatTimestamp(&tx.CreatedAt))
}

func printUserHeader(user models.User, ledger *api.LedgerService) {
	fmt.Printf("\n┌─ User: %d\n", user.Id)
	fmt.Printf("│  Balance: %s\n", ledger.FormatAmount(user.Balance))
	common.PrintBoxSeparator(78)
}

func processUser(ctx context.Context, user models.User, ledger *api.LedgerService, historyLimit int, reconcile bool) error {
	history, err := ledger.GetTransactionHistory(ctx, user.Id, historyLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	printUserHeader(user, ledger)
	for i, tx := range history {
		printTransaction(tx, i == len(history)-1)
	}

	if reconcile {
		if err := ledger.ReconcileUserBalance(ctx, user.Id); err != nil {
			fmt.Printf("   ✗ reconciliation failed: %v\n", err)
			return fmt.Errorf("reconciliation failed: %w", err)
		}
		fmt.Println("   ✓ balance matches transaction history")
	}

	return nil
}

func processUsersAndGenerateReport(ctx context.Context, users []models.User, ledger *api.LedgerService, historyLimit int, reconcile bool, logger *zap.Logger) balanceStats {
	stats := balanceStats{}

	for _, user := range users {
		stats.totalUsers++

		if err := processUser(ctx, user, ledger, historyLimit, reconcile); err != nil {
			logger.Error("Failed to process user",
				zap.Int64("user_id", user.Id),
				zap.Error(err))
			stats.reconcileFailures++
			continue
		}

		if user.Balance.IsPositive() {
			stats.usersWithBalances++
		}
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	userFlag := flag.Int64("user", 0, "Filter by Telegram user id (optional)")
	historyFlag := flag.Int("history", 5, "Number of audit rows to show per user")
	reconcileFlag := flag.Bool("reconcile", false, "Verify each balance against its transaction history")
	flag.Parse()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := common.InitializeStoreOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize ledger store", zap.Error(err))
	}
	defer db.Close()

	ledger := api.NewLedgerService(db, cfg.Ledger, metrics.New())

	users, err := common.InitializeUsers(ctx, db, *userFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize users", zap.Error(err))
	}

	common.PrintHeader("USER BALANCE REPORT", common.DefaultWidth)

	stats := processUsersAndGenerateReport(ctx, users, ledger, *historyFlag, *reconcileFlag, logger)

	summary := fmt.Sprintf("SUMMARY: %d users with balances (%d users queried, %d failures)",
		stats.usersWithBalances, stats.totalUsers, stats.reconcileFailures)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("users_with_balances", stats.usersWithBalances),
		zap.Int("failures", stats.reconcileFailures))
}
