package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger is what the callback server needs from the ledger service
type Ledger interface {
	RecordEngagement(ctx context.Context, userId, adId int64) (*models.EngagementResult, error)
	HealthCheck(ctx context.Context) error
	FormatAmount(amount decimal.Decimal) string
}

type Handler struct {
	ledger Ledger
}

func NewHandler(ledger Ledger) *Handler {
	return &Handler{ledger: ledger}
}

// Click handles GET /click?user_id=<int>&ad_id=<int>
func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	userId, err := queryInt64(r, "user_id")
	if err != nil {
		writeText(w, http.StatusBadRequest, "Error: "+err.Error())
		return
	}
	adId, err := queryInt64(r, "ad_id")
	if err != nil {
		writeText(w, http.StatusBadRequest, "Error: "+err.Error())
		return
	}

	result, err := h.ledger.RecordEngagement(r.Context(), userId, adId)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeText(w, http.StatusBadRequest, fmt.Sprintf("Error: ad %d not found", adId))
		return
	case errors.Is(err, store.ErrInvalidInput):
		writeText(w, http.StatusBadRequest, "Error: invalid engagement")
		return
	case err != nil:
		zap.L().Error("Click processing failed",
			zap.Int64("user_id", userId),
			zap.Int64("ad_id", adId),
			zap.Error(err))
		writeText(w, http.StatusInternalServerError, "Error: internal error")
		return
	}

	if result.AlreadyRecorded {
		writeText(w, http.StatusOK, "Already clicked")
		return
	}
	writeText(w, http.StatusOK, "Click registered! +"+h.ledger.FormatAmount(result.Credited))
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.HealthCheck(r.Context()); err != nil {
		zap.L().Warn("Health check failed", zap.Error(err))
		writeText(w, http.StatusServiceUnavailable, "unavailable")
		return
	}
	writeText(w, http.StatusOK, "ok")
}

func queryInt64(r *http.Request, key string) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", key)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		zap.L().Debug("Failed to write response", zap.Error(err))
	}
}
