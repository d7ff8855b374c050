package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveEngagement("credited", 1)
	m.ObserveWithdrawal("ok")
	m.ObserveApproval("ok")
	m.ObserveCommand("start")
	m.ObserveRequest("/click", http.MethodGet, http.StatusOK, 0.01)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveEngagement("credited", 30)
	m.ObserveEngagement("credited", 1.5)
	m.ObserveEngagement("duplicate", 0)
	m.ObserveWithdrawal("insufficient_balance")
	m.ObserveCommand("balance")
	m.ObserveCommand("balance")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.engagements.WithLabelValues("credited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.engagements.WithLabelValues("duplicate")))
	assert.Equal(t, 31.5, testutil.ToFloat64(m.credited))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.withdrawals.WithLabelValues("insufficient_balance")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.commands.WithLabelValues("balance")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveRequest("/click", http.MethodGet, http.StatusOK, 0.02)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "adrewards_http_requests_total"))
}
