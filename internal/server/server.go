package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ad-rewards-go/internal/metrics"
	"ad-rewards-go/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter wires the engagement callback, health and metrics endpoints.
func NewRouter(h *Handler, limiter *RateLimiter, m *metrics.Metrics) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(m))
	r.Use(middleware.Recoverer)

	r.With(limiter.Middleware).Get("/click", h.Click)
	r.Get("/healthz", h.Healthz)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	return r
}

// Serve runs the callback server until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, cfg models.ServerConfig, handler http.Handler) error {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("Callback server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("callback server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	zap.L().Info("Shutting down callback server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("callback server shutdown failed: %w", err)
	}
	return nil
}
