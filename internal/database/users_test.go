package database

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCreateUser_Idempotent(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()

	created, err := service.CreateUser(ctx, 100)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if !created {
		t.Error("Expected first CreateUser to report creation")
	}

	created, err = service.CreateUser(ctx, 100)
	if err != nil {
		t.Fatalf("Second CreateUser failed: %v", err)
	}
	if created {
		t.Error("Expected second CreateUser to report existing user")
	}

	users, err := service.GetUsers(ctx)
	if err != nil {
		t.Fatalf("GetUsers failed: %v", err)
	}
	if len(users) != 1 || users[0].Id != 100 || !users[0].Balance.IsZero() {
		t.Errorf("Unexpected users: %+v", users)
	}
}

func TestGetBalance_UnknownUser(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	balance, err := service.GetBalance(ctx, 555)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !balance.IsZero() {
		t.Errorf("Expected zero balance, got %s", balance.String())
	}

	count, _ := service.CountUsers(ctx)
	if count != 0 {
		t.Errorf("GetBalance must not provision users, got %d", count)
	}
}

func TestDeleteUser_ForfeitsBalance(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	fundUser(t, service, 20, "100")

	deleted, err := service.DeleteUser(ctx, 20)
	if err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if !deleted {
		t.Error("Expected user to be deleted")
	}

	history, err := service.GetTransactionHistory(ctx, 20, 10, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected commission and forfeit rows, got %d", len(history))
	}
	if history[0].TransactionType != "forfeit" || !history[0].Amount.Equal(decimal.NewFromInt(-30)) {
		t.Errorf("Unexpected forfeit row: %+v", history[0])
	}

	if err := service.ReconcileUserBalance(ctx, 20); err != nil {
		t.Errorf("Reconciliation after unsubscribe failed: %v", err)
	}

	deleted, err = service.DeleteUser(ctx, 20)
	if err != nil {
		t.Fatalf("Second DeleteUser failed: %v", err)
	}
	if deleted {
		t.Error("Expected second delete to report no user")
	}
}

func TestDeleteUser_ReengagementStartsFromZero(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	fundUser(t, service, 21, "100")

	if _, err := service.DeleteUser(ctx, 21); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	fundUser(t, service, 21, "50")

	balance, _ := service.GetBalance(ctx, 21)
	if !balance.Equal(decimal.NewFromInt(15)) {
		t.Errorf("Expected fresh balance 15, got %s", balance.String())
	}
	if err := service.ReconcileUserBalance(ctx, 21); err != nil {
		t.Errorf("Reconciliation failed: %v", err)
	}
}
