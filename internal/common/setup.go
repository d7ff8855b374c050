package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ad-rewards-go/internal/api"
	"ad-rewards-go/internal/config"
	"ad-rewards-go/internal/database"
	"ad-rewards-go/internal/metrics"
	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/postgres"
	"ad-rewards-go/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	Store   store.LedgerStore
	Ledger  *api.LedgerService
	Metrics *metrics.Metrics
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the configured ledger backend and builds the shared ledger service
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	db, err := InitializeStoreOnly(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	zap.L().Info("Ledger service ready",
		zap.String("backend", cfg.Database.Backend),
		zap.String("commission_percent", cfg.Ledger.CommissionPercent.String()),
		zap.String("min_withdrawal", cfg.Ledger.MinWithdrawal.String()),
		zap.String("currency", cfg.Ledger.Currency))

	return &Services{
		Store:   db,
		Ledger:  api.NewLedgerService(db, cfg.Ledger, m),
		Metrics: m,
	}, nil
}

// InitializeStoreOnly opens just the storage backend.
// Useful for command-line tools that do not serve traffic.
func InitializeStoreOnly(ctx context.Context, cfg *models.Config) (store.LedgerStore, error) {
	switch cfg.Database.Backend {
	case config.BackendPostgres:
		zap.L().Info("Using Postgres ledger backend")
		pg, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres ledger: %w", err)
		}
		return pg, nil
	case config.BackendSqlite, "":
		zap.L().Info("Using SQLite ledger backend", zap.String("path", cfg.Database.Path))
		db, err := database.NewService(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite ledger: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported ledger backend %q", cfg.Database.Backend)
	}
}

func (cs *Services) Close() {
	if cs.Store != nil {
		cs.Store.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
