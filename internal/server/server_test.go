package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"ad-rewards-go/internal/api"
	"ad-rewards-go/internal/database"
	"ad-rewards-go/internal/metrics"
	"ad-rewards-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server *httptest.Server
	ledger *api.LedgerService
}

func setupServer(t *testing.T, limiter *RateLimiter) *testEnv {
	t.Helper()

	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "ledger.db"),
		MaxOpenConns: 4,
		PingTimeout:  5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	m := metrics.New()
	ledger := api.NewLedgerService(db, models.LedgerConfig{
		CommissionPercent: decimal.NewFromInt(30),
		MinWithdrawal:     decimal.NewFromInt(50),
		Currency:          "BDT",
		AdListLimit:       5,
	}, m)

	if limiter == nil {
		limiter = NewRateLimiter(6000, 1000)
	}
	ts := httptest.NewServer(NewRouter(NewHandler(ledger), limiter, m))
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, ledger: ledger}
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestClick_CreditThenDuplicate(t *testing.T) {
	env := setupServer(t, nil)
	ad, err := env.ledger.AddAd(context.Background(), "Ad", "https://ad.example.com", decimal.NewFromInt(100))
	require.NoError(t, err)

	status, body := get(t, env.server.URL+"/click?user_id=5&ad_id=1")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Click registered! +30 BDT", body)
	assert.Equal(t, int64(1), ad.Id)

	status, body = get(t, env.server.URL+"/click?user_id=5&ad_id=1")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Already clicked", body)

	balance, err := env.ledger.GetBalance(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(30)))
}

func TestClick_BadRequests(t *testing.T) {
	env := setupServer(t, nil)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"missing user", "?ad_id=1", "Error: missing user_id"},
		{"missing ad", "?user_id=1", "Error: missing ad_id"},
		{"malformed user", "?user_id=abc&ad_id=1", `Error: invalid user_id "abc"`},
		{"malformed ad", "?user_id=1&ad_id=1.5", `Error: invalid ad_id "1.5"`},
		{"unknown ad", "?user_id=1&ad_id=404", "Error: ad 404 not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, env.server.URL+"/click"+tt.query)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.want, body)
		})
	}
}

func TestClick_RateLimited(t *testing.T) {
	env := setupServer(t, NewRateLimiter(1, 2))

	for i := 0; i < 2; i++ {
		status, _ := get(t, env.server.URL+"/click?user_id=1&ad_id=1")
		assert.Equal(t, http.StatusBadRequest, status)
	}
	status, _ := get(t, env.server.URL+"/click?user_id=1&ad_id=1")
	assert.Equal(t, http.StatusTooManyRequests, status)

	status, body := get(t, env.server.URL+"/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupServer(t, nil)

	get(t, env.server.URL+"/click?user_id=1&ad_id=1")
	status, body := get(t, env.server.URL+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `adrewards_http_requests_total{method="GET",route="/click",status="Bad Request"} 1`)
	assert.Contains(t, body, `adrewards_engagements_total{outcome="rejected"} 1`)
}

type brokenLedger struct{}

func (brokenLedger) RecordEngagement(context.Context, int64, int64) (*models.EngagementResult, error) {
	return nil, errors.New("database is locked")
}

func (brokenLedger) HealthCheck(context.Context) error {
	return errors.New("database is closed")
}

func (brokenLedger) FormatAmount(d decimal.Decimal) string {
	return d.String()
}

func TestClick_StorageFailure(t *testing.T) {
	ts := httptest.NewServer(NewRouter(NewHandler(brokenLedger{}), NewRateLimiter(600, 10), nil))
	defer ts.Close()

	status, body := get(t, ts.URL+"/click?user_id=1&ad_id=1")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Error: internal error", body)

	status, _ = get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, _ = get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRateLimiter_PerClient(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := NewRateLimiter(60, 1)
	limiter.clockNow = func() time.Time { return now }

	assert.True(t, limiter.allow("10.0.0.1"))
	assert.False(t, limiter.allow("10.0.0.1"))
	assert.True(t, limiter.allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, limiter.allow("10.0.0.1"))

	now = now.Add(visitorIdleTTL + time.Minute)
	limiter.allow("10.0.0.3")
	assert.Len(t, limiter.visitors, 1)
}

func TestClientID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/click", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientID(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientID(r))

	r.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", clientID(r))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, models.ServerConfig{Port: "0", ReadHeaderTimeout: time.Second, ShutdownTimeout: time.Second}, http.NotFoundHandler())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
