package store

import (
	"context"
	"errors"

	"ad-rewards-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidAd           = errors.New("invalid ad")
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyApproved     = errors.New("withdrawal already approved")
)

// AddAdParams contains the parameters for appending an ad to the catalog.
type AddAdParams struct {
	Text        string
	Destination string
	Reward      decimal.Decimal
}

// RecordClickParams contains the parameters for recording an engagement.
// CommissionRate is a fraction (0.3 for 30%).
type RecordClickParams struct {
	UserId         int64
	AdId           int64
	CommissionRate decimal.Decimal
}

// CreateWithdrawalParams contains the parameters for opening a withdrawal request.
type CreateWithdrawalParams struct {
	UserId  int64
	Minimum decimal.Decimal
}

// LedgerStore defines the contract that every backend (SQLite, Postgres) must satisfy.
// Every mutating method runs as a single transaction: either all of its writes commit or none do.
type LedgerStore interface {
	// --- Users ---
	CreateUser(ctx context.Context, userId int64) (bool, error)
	DeleteUser(ctx context.Context, userId int64) (bool, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	CountUsers(ctx context.Context) (int64, error)

	// --- Ads ---
	AddAd(ctx context.Context, params AddAdParams) (*models.Ad, error)
	GetAd(ctx context.Context, adId int64) (*models.Ad, error)
	ListRecentAds(ctx context.Context, limit int) ([]models.Ad, error)
	CountAds(ctx context.Context) (int64, error)

	// --- Engagements ---
	RecordClick(ctx context.Context, params RecordClickParams) (*models.EngagementResult, error)

	// --- Balances ---
	GetBalance(ctx context.Context, userId int64) (decimal.Decimal, error)
	GetTransactionHistory(ctx context.Context, userId int64, limit, offset int) ([]models.Transaction, error)
	ReconcileUserBalance(ctx context.Context, userId int64) error

	// --- Withdrawals ---
	CreateWithdrawal(ctx context.Context, params CreateWithdrawalParams) (*models.WithdrawalRequest, error)
	ApproveWithdrawal(ctx context.Context, requestId int64) (*models.WithdrawalRequest, error)
	GetWithdrawal(ctx context.Context, requestId int64) (*models.WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, status string, limit int) ([]models.WithdrawalRequest, error)

	// --- Lifecycle ---
	Ping(ctx context.Context) error
	Close()
}
