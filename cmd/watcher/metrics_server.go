package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthResponse represents a simple health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// UpstreamHealthResponse reports the state of the YouTube API breaker.
type UpstreamHealthResponse struct {
	Healthy            bool   `json:"healthy"`
	Upstream           string `json:"upstream"`
	CircuitBreakerOpen bool   `json:"circuit_breaker_open"`
}

// breakerState is satisfied by *youtube.Client.
type breakerState interface {
	BreakerOpen() bool
}

// newMetricsMux builds the routes of the metrics server.
//
// The server exposes the following endpoints:
//   - GET /metrics - Prometheus metrics endpoint
//   - GET /health - Simple liveness probe (always returns 200 OK)
//   - GET /health/upstream - YouTube API circuit breaker state
func newMetricsMux(upstream breakerState) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/health/upstream", upstreamHealthHandler(upstream))
	return mux
}

// runMetricsServer serves newMetricsMux on port until ctx is cancelled.
// It returns http.ErrServerClosed after a graceful shutdown.
func runMetricsServer(ctx context.Context, logger *slog.Logger, port int, upstream breakerState) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      newMetricsMux(upstream),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("metrics server shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
			return err
		}
		logger.Info("metrics server stopped")
		return http.ErrServerClosed
	case err := <-errChan:
		logger.Error("metrics server error", slog.Any("error", err))
		return err
	}
}

// healthHandler handles GET /health requests (liveness probe).
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HealthResponse{Status: "healthy"})
}

// upstreamHealthHandler returns 503 while the YouTube API breaker is open.
func upstreamHealthHandler(upstream breakerState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		open := upstream != nil && upstream.BreakerOpen()

		statusCode := http.StatusOK
		if open {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(UpstreamHealthResponse{
			Healthy:            !open,
			Upstream:           "youtube",
			CircuitBreakerOpen: open,
		})
	}
}
