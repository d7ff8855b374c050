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
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ad-rewards-go/internal/bot"
	"ad-rewards-go/internal/commands"
	"ad-rewards-go/internal/common"
	"ad-rewards-go/internal/config"
	"ad-rewards-go/internal/server"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	if cfg.Bot.Token == "" {
		zap.L().Fatal("BOT_TOKEN is required")
	}
	if cfg.Server.BaseURL == "" {
		zap.L().Fatal("BASE_URL is required to build click links")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	zap.L().Info("Starting ad rewards bot")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	handler := commands.NewHandler(
		services.Ledger,
		commands.StaticAdmin(cfg.Bot.AdminId),
		cfg.Server.BaseURL,
		cfg.Ledger.AdListLimit,
		services.Metrics,
	)

	telegram, err := bot.New(cfg.Bot.Token, handler, cfg.Bot.PollTimeout)
	if err != nil {
		zap.L().Fatal("Failed to start bot", zap.Error(err))
	}

	router := server.NewRouter(
		server.NewHandler(services.Ledger),
		server.NewRateLimiter(cfg.Server.ClickRatePerMinute, cfg.Server.ClickBurst),
		services.Metrics,
	)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		// A dead callback server stops the bot too
		defer cancel()
		if err := server.Serve(ctx, cfg.Server, router); err != nil {
			zap.L().Error("Callback server stopped", zap.Error(err))
		}
	}()

	go func() {
		defer wg.Done()
		defer cancel()
		if err := telegram.Run(ctx); err != nil {
			zap.L().Error("Bot stopped", zap.Error(err))
		}
	}()

	zap.L().Info("Bot and callback server running",
		zap.String("port", cfg.Server.Port),
		zap.Int64("admin_id", cfg.Bot.AdminId))
	zap.L().Info("Press Ctrl+C to stop")

	<-ctx.Done()
	zap.L().Info("Shutdown signal received, stopping bot and callback server...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Shutdown complete")
	case <-time.After(cfg.Server.ShutdownTimeout + 5*time.Second):
		zap.L().Warn("Forced shutdown after timeout")
	}
}
