package commands

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ad-rewards-go/internal/api"
	"ad-rewards-go/internal/database"
	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminId = int64(1000)
	userId  = int64(42)
)

func newTestHandler(t *testing.T) (*Handler, *api.LedgerService) {
	t.Helper()

	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "ledger.db"),
		MaxOpenConns: 4,
		PingTimeout:  5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	ledger := api.NewLedgerService(db, models.LedgerConfig{
		CommissionPercent: decimal.NewFromInt(30),
		MinWithdrawal:     decimal.NewFromInt(50),
		Currency:          "BDT",
		AdListLimit:       5,
	}, nil)
	return NewHandler(ledger, StaticAdmin(adminId), "https://rewards.example.com/", 5, nil), ledger
}

func run(h *Handler, caller int64, line string) []Reply {
	fields := strings.Fields(line)
	return h.Handle(context.Background(), Request{CallerId: caller, Command: fields[0], Args: fields[1:]})
}

func TestStartAndBalance(t *testing.T) {
	h, ledger := newTestHandler(t)

	replies := run(h, userId, "start")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Subscribed")

	stats, err := ledger.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Users)

	replies = run(h, userId, "balance")
	require.Len(t, replies, 1)
	assert.Equal(t, "💰 Your balance: 0 BDT", replies[0].Text)
}

func TestHelp(t *testing.T) {
	h, _ := newTestHandler(t)
	replies := run(h, userId, "help")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "/withdraw")
}

func TestUnknownCommandIgnored(t *testing.T) {
	h, _ := newTestHandler(t)
	assert.Empty(t, run(h, userId, "dance now"))
}

func TestAdminCommandsSilentForNonAdmin(t *testing.T) {
	h, ledger := newTestHandler(t)

	assert.Empty(t, run(h, userId, "addad Buy now https://shop.example.com 10"))
	assert.Empty(t, run(h, userId, "approve_withdraw 1"))
	assert.Empty(t, run(h, userId, "stats"))

	stats, err := ledger.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Ads)
}

func TestAddAdAndListAds(t *testing.T) {
	h, _ := newTestHandler(t)

	replies := run(h, adminId, "addad Buy fresh fruit today https://shop.example.com 10.5")
	require.Len(t, replies, 1)
	assert.Equal(t, "✅ Ad #1 added!", replies[0].Text)

	replies = run(h, adminId, "addad Second ad https://two.example.com 20")
	require.Len(t, replies, 1)

	replies = run(h, userId, "ads")
	require.Len(t, replies, 2)
	assert.Equal(t, "Second ad", replies[0].Text)
	assert.Equal(t, "https://rewards.example.com/click?user_id=42&ad_id=2", replies[0].LinkURL)
	assert.Equal(t, "Buy fresh fruit today", replies[1].Text)
	assert.Equal(t, "https://rewards.example.com/click?user_id=42&ad_id=1", replies[1].LinkURL)
	assert.NotEmpty(t, replies[1].LinkLabel)
}

func TestAdsEmpty(t *testing.T) {
	h, _ := newTestHandler(t)
	replies := run(h, userId, "ads")
	require.Len(t, replies, 1)
	assert.Empty(t, replies[0].LinkURL)
}

func TestAddAdInvalid(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		line string
	}{
		{"too few tokens", "addad 10"},
		{"non numeric reward", "addad Ad text https://x.example.com ten"},
		{"zero reward", "addad Ad text https://x.example.com 0"},
		{"negative reward", "addad Ad text https://x.example.com -3"},
		{"missing text", "addad https://x.example.com 10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replies := run(h, adminId, tt.line)
			require.Len(t, replies, 1)
			assert.True(t, strings.HasPrefix(replies[0].Text, "Error:"), replies[0].Text)
			assert.Contains(t, replies[0].Text, usageAddAd)
		})
	}
}

func TestWithdrawFlow(t *testing.T) {
	h, ledger := newTestHandler(t)
	ctx := context.Background()

	replies := run(h, userId, "withdraw")
	require.Len(t, replies, 1)
	assert.Equal(t, "⚠️ Balance too low. At least 50 BDT is required.", replies[0].Text)

	ad, err := ledger.AddAd(ctx, "Big reward", "https://big.example.com", decimal.NewFromInt(200))
	require.NoError(t, err)
	_, err = ledger.RecordEngagement(ctx, userId, ad.Id)
	require.NoError(t, err)

	replies = run(h, userId, "withdraw")
	require.Len(t, replies, 1)
	assert.Equal(t, "✅ Withdraw request #1 for 60 BDT sent. Admin approval is required.", replies[0].Text)

	replies = run(h, adminId, "approve_withdraw 1")
	require.Len(t, replies, 1)
	assert.Equal(t, "✅ Withdraw request 1 approved.", replies[0].Text)

	replies = run(h, adminId, "approve_withdraw 1")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "already approved")

	replies = run(h, adminId, "approve_withdraw 99")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "not found")

	replies = run(h, adminId, "approve_withdraw abc")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, usageApprove)
}

func TestUnsubAndStats(t *testing.T) {
	h, _ := newTestHandler(t)

	run(h, userId, "start")
	run(h, userId+1, "start")
	run(h, adminId, "addad Ad https://a.example.com 5")

	replies := run(h, adminId, "stats")
	require.Len(t, replies, 1)
	assert.Equal(t, "📊 Users: 2\n📊 Ads: 1", replies[0].Text)

	replies = run(h, userId, "unsub")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "unsubscribed")

	replies = run(h, adminId, "stats")
	assert.Equal(t, "📊 Users: 1\n📊 Ads: 1", replies[0].Text)
}

type failingLedger struct {
	Ledger
}

func (failingLedger) GetBalance(context.Context, int64) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("disk I/O error")
}

func (failingLedger) RequestWithdrawal(context.Context, int64) (*models.WithdrawalRequest, error) {
	return nil, errors.New("database is locked")
}

func TestStorageFailureIsNotSuccess(t *testing.T) {
	h := NewHandler(failingLedger{}, StaticAdmin(adminId), "https://x.example.com", 5, nil)

	replies := h.Handle(context.Background(), Request{CallerId: userId, Command: CommandBalance})
	require.Len(t, replies, 1)
	assert.Equal(t, msgInternalError, replies[0].Text)

	replies = h.Handle(context.Background(), Request{CallerId: userId, Command: CommandWithdraw})
	require.Len(t, replies, 1)
	assert.Equal(t, msgInternalError, replies[0].Text)
}

func TestParseAddAdArgs(t *testing.T) {
	text, destination, reward, err := ParseAddAdArgs([]string{"Great", "deal", "https://d.example.com", "12.75"})
	require.NoError(t, err)
	assert.Equal(t, "Great deal", text)
	assert.Equal(t, "https://d.example.com", destination)
	assert.True(t, reward.Equal(decimal.RequireFromString("12.75")))

	_, _, _, err = ParseAddAdArgs([]string{"only"})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, _, _, err = ParseAddAdArgs([]string{"x", "https://d.example.com", "abc"})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestClickURL(t *testing.T) {
	assert.Equal(t, "https://a.example.com/click?user_id=7&ad_id=3", ClickURL("https://a.example.com/", 7, 3))
	assert.Equal(t, "http://localhost:5000/click?user_id=-5&ad_id=1", ClickURL("http://localhost:5000", -5, 1))
}
