package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rate = decimal.RequireFromString("0.3")

func setupStore(t *testing.T) *Store {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Open(ctx, models.DatabaseConfig{Url: dbURL, MaxOpenConns: 10, PingTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.pool.Exec(ctx, "TRUNCATE balance_transactions, withdraw_requests, clicks, ads, users RESTART IDENTITY")
	require.NoError(t, err)
	return s
}

func addAd(t *testing.T, s *Store, reward string) *models.Ad {
	t.Helper()
	ad, err := s.AddAd(context.Background(), store.AddAdParams{
		Text:        "Visit us",
		Destination: "https://example.com",
		Reward:      decimal.RequireFromString(reward),
	})
	require.NoError(t, err)
	return ad
}

func TestRecordClick_ExactlyOnceUnderConcurrency(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	ad := addAd(t, s, "100")

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan *models.EngagementResult, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.RecordClick(ctx, store.RecordClickParams{UserId: 1, AdId: ad.Id, CommissionRate: rate})
			assert.NoError(t, err)
			results <- res
		}()
	}
	wg.Wait()
	close(results)

	credited := 0
	for res := range results {
		if res != nil && !res.AlreadyRecorded {
			credited++
		}
	}
	assert.Equal(t, 1, credited)

	balance, err := s.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(30)), "balance %s", balance)
	assert.NoError(t, s.ReconcileUserBalance(ctx, 1))
}

func TestRecordClick_UnknownAd(t *testing.T) {
	s := setupStore(t)
	_, err := s.RecordClick(context.Background(), store.RecordClickParams{UserId: 1, AdId: 404, CommissionRate: rate})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithdrawalLifecycle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	ad := addAd(t, s, "200")

	_, err := s.RecordClick(ctx, store.RecordClickParams{UserId: 2, AdId: ad.Id, CommissionRate: rate})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateWithdrawal(ctx, store.CreateWithdrawalParams{UserId: 2, Minimum: decimal.NewFromInt(50)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	failures := 0
	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, store.ErrInsufficientBalance)
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	pending, err := s.ListWithdrawals(ctx, models.WithdrawalStatusPending, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Amount.Equal(decimal.NewFromInt(60)))

	approved, err := s.ApproveWithdrawal(ctx, pending[0].Id)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusApproved, approved.Status)
	assert.NotNil(t, approved.ApprovedAt)

	_, err = s.ApproveWithdrawal(ctx, pending[0].Id)
	assert.ErrorIs(t, err, store.ErrAlreadyApproved)

	_, err = s.ApproveWithdrawal(ctx, 9999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteUser_Forfeit(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	ad := addAd(t, s, "10")

	_, err := s.RecordClick(ctx, store.RecordClickParams{UserId: 3, AdId: ad.Id, CommissionRate: rate})
	require.NoError(t, err)

	deleted, err := s.DeleteUser(ctx, 3)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, s.ReconcileUserBalance(ctx, 3))

	created, err := s.CreateUser(ctx, 3)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.CreateUser(ctx, 3)
	require.NoError(t, err)
	assert.False(t, created)
}
