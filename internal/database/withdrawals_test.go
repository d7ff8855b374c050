package database

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"github.com/shopspring/decimal"
)

// fundUser credits userId with 30% of each reward by clicking a fresh ad per reward.
func fundUser(t *testing.T, service *Service, userId int64, rewards ...string) {
	t.Helper()

	for _, reward := range rewards {
		ad := addTestAd(t, service, reward)
		if _, err := service.RecordClick(context.Background(), store.RecordClickParams{
			UserId: userId, AdId: ad.Id, CommissionRate: testCommissionRate,
		}); err != nil {
			t.Fatalf("RecordClick failed: %v", err)
		}
	}
}

func TestCreateWithdrawal_DebitsFullBalance(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	// 30% of 200 + 30% of 66.67 = 80.001
	fundUser(t, service, 3, "200", "66.67")
	before, _ := service.GetBalance(ctx, 3)

	request, err := service.CreateWithdrawal(ctx, store.CreateWithdrawalParams{UserId: 3, Minimum: decimal.NewFromInt(50)})
	if err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}

	if !request.Amount.Equal(before) {
		t.Errorf("Expected request amount %s, got %s", before.String(), request.Amount.String())
	}
	if request.Status != models.WithdrawalStatusPending {
		t.Errorf("Expected pending status, got %s", request.Status)
	}

	balance, _ := service.GetBalance(ctx, 3)
	if !balance.IsZero() {
		t.Errorf("Expected zero balance after withdrawal, got %s", balance.String())
	}

	stored, err := service.GetWithdrawal(ctx, request.Id)
	if err != nil {
		t.Fatalf("GetWithdrawal failed: %v", err)
	}
	if !stored.Amount.Equal(before) || stored.ApprovedAt != nil {
		t.Errorf("Unexpected stored request: %+v", stored)
	}

	if err := service.ReconcileUserBalance(ctx, 3); err != nil {
		t.Errorf("Reconciliation failed: %v", err)
	}
}

func TestCreateWithdrawal_ExactAmount(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	fundUser(t, service, 4, "200", "66.66666666666666666667")

	balance, _ := service.GetBalance(ctx, 4)
	request, err := service.CreateWithdrawal(ctx, store.CreateWithdrawalParams{UserId: 4, Minimum: decimal.NewFromInt(50)})
	if err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}
	if !request.Amount.Equal(balance) {
		t.Errorf("Expected amount %s, got %s", balance.String(), request.Amount.String())
	}
}

func TestCreateWithdrawal_BelowMinimum(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	// 30% of 133.33 = 39.999
	fundUser(t, service, 5, "133.33")

	_, err := service.CreateWithdrawal(ctx, store.CreateWithdrawalParams{UserId: 5, Minimum: decimal.NewFromInt(50)})
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}

	balance, _ := service.GetBalance(ctx, 5)
	if !balance.Equal(decimal.RequireFromString("39.999")) {
		t.Errorf("Expected balance unchanged, got %s", balance.String())
	}

	requests, err := service.ListWithdrawals(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListWithdrawals failed: %v", err)
	}
	if len(requests) != 0 {
		t.Errorf("Expected no withdrawal requests, got %d", len(requests))
	}
}

func TestCreateWithdrawal_ZeroBalanceZeroMinimum(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.CreateUser(ctx, 6); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	_, err := service.CreateWithdrawal(ctx, store.CreateWithdrawalParams{UserId: 6, Minimum: decimal.Zero})
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Errorf("Expected ErrInsufficientBalance for zero balance, got %v", err)
	}
}

func TestCreateWithdrawal_ConcurrentRequests(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	fundUser(t, service, 8, "300")

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	insufficient := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.CreateWithdrawal(ctx, store.CreateWithdrawalParams{UserId: 8, Minimum: decimal.NewFromInt(50)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, store.ErrInsufficientBalance):
				insufficient++
			default:
				t.Errorf("Unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || insufficient != workers-1 {
		t.Errorf("Expected 1 success and %d rejections, got %d and %d", workers-1, succeeded, insufficient)
	}

	requests, _ := service.ListWithdrawals(ctx, models.WithdrawalStatusPending, 10)
	if len(requests) != 1 {
		t.Fatalf("Expected 1 pending request, got %d", len(requests))
	}
	if !requests[0].Amount.Equal(decimal.NewFromInt(90)) {
		t.Errorf("Expected amount 90, got %s", requests[0].Amount.String())
	}
}

func TestApproveWithdrawal(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	fundUser(t, service, 10, "200")

	request, err := service.CreateWithdrawal(ctx, store.CreateWithdrawalParams{UserId: 10, Minimum: decimal.NewFromInt(50)})
	if err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}

	approved, err := service.ApproveWithdrawal(ctx, request.Id)
	if err != nil {
		t.Fatalf("ApproveWithdrawal failed: %v", err)
	}
	if approved.Status != models.WithdrawalStatusApproved || approved.ApprovedAt == nil {
		t.Errorf("Expected approved request with timestamp, got %+v", approved)
	}

	_, err = service.ApproveWithdrawal(ctx, request.Id)
	if !errors.Is(err, store.ErrAlreadyApproved) {
		t.Errorf("Expected ErrAlreadyApproved, got %v", err)
	}

	stored, err := service.GetWithdrawal(ctx, request.Id)
	if err != nil {
		t.Fatalf("GetWithdrawal failed: %v", err)
	}
	if stored.Status != models.WithdrawalStatusApproved || stored.ApprovedAt == nil {
		t.Errorf("Expected stored request to stay approved, got %+v", stored)
	}

	balance, _ := service.GetBalance(ctx, 10)
	if !balance.IsZero() {
		t.Errorf("Approval must not touch the balance, got %s", balance.String())
	}
}

func TestApproveWithdrawal_NotFound(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.ApproveWithdrawal(context.Background(), 12345)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListWithdrawals_FiltersByStatus(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	fundUser(t, service, 11, "200")
	fundUser(t, service, 12, "300")

	first, err := service.CreateWithdrawal(ctx, store.CreateWithdrawalParams{UserId: 11, Minimum: decimal.NewFromInt(50)})
	if err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}
	second, err := service.CreateWithdrawal(ctx, store.CreateWithdrawalParams{UserId: 12, Minimum: decimal.NewFromInt(50)})
	if err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}
	if _, err := service.ApproveWithdrawal(ctx, first.Id); err != nil {
		t.Fatalf("ApproveWithdrawal failed: %v", err)
	}

	pending, _ := service.ListWithdrawals(ctx, models.WithdrawalStatusPending, 10)
	if len(pending) != 1 || pending[0].Id != second.Id {
		t.Errorf("Expected only request %d pending, got %+v", second.Id, pending)
	}

	all, _ := service.ListWithdrawals(ctx, "", 10)
	if len(all) != 2 || all[0].Id != second.Id {
		t.Errorf("Expected both requests newest first, got %+v", all)
	}
}
