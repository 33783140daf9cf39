package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthServer provides HTTP endpoints for health checks.
// It implements two endpoints:
//   - /health: Liveness probe (always returns 200 OK)
//   - /health/ready: Readiness probe (200 once a polling cycle has completed
//     recently, 503 otherwise)
//
// The poller calls MarkCycle after every cycle. A cycle older than
// staleAfter makes the probe fail, which catches a loop stuck on a hanging call.
//
// Example usage:
//
//	healthServer := NewHealthServer(":9091", logger, 3*cfg.PollInterval)
//	go func() {
//	    if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
//	        logger.Error("health server failed", slog.Any("error", err))
//	    }
//	}()
type HealthServer struct {
	addr       string
	logger     *slog.Logger
	staleAfter time.Duration
	now        func() time.Time

	isReady       atomic.Bool
	lastCycleUnix atomic.Int64
	trackedVideos atomic.Int64
	server        *http.Server
}

// healthResponse is the JSON response format for health check endpoints.
type healthResponse struct {
	Status        string     `json:"status"`
	LastCycleAt   *time.Time `json:"last_cycle_at,omitempty"`
	TrackedVideos *int64     `json:"tracked_videos,omitempty"`
}

// NewHealthServer creates a new health check server.
//
// Parameters:
//   - addr: Server listen address (e.g., ":9091", "localhost:9091")
//   - logger: Structured logger for logging server events
//   - staleAfter: Maximum age of the last cycle for readiness; 0 disables the check
//
// Returns:
//   - *HealthServer: Initialized health server (not started yet)
func NewHealthServer(addr string, logger *slog.Logger, staleAfter time.Duration) *HealthServer {
	return &HealthServer{
		addr:       addr,
		logger:     logger,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Handler returns the mux serving both endpoints.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleLiveness)
	mux.HandleFunc("/health/ready", h.handleReadiness)
	return mux
}

// Start starts the health check HTTP server.
// This is a blocking call that runs until the context is cancelled or an error occurs.
// It supports graceful shutdown with a 5-second timeout.
//
// Returns:
//   - error: http.ErrServerClosed on graceful shutdown, other errors on failure
func (h *HealthServer) Start(ctx context.Context) error {
	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", h.addr))
		if err := h.server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		h.logger.Info("health server shutting down")
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("health server shutdown failed", slog.Any("error", err))
			return err
		}
		h.logger.Info("health server stopped")
		return http.ErrServerClosed

	case err := <-errChan:
		if err == http.ErrServerClosed {
			return err
		}
		h.logger.Error("health server failed", slog.Any("error", err))
		return err
	}
}

// SetReady sets the readiness state of the server.
func (h *HealthServer) SetReady(ready bool) {
	if h.isReady.Swap(ready) != ready {
		h.logger.Info("health server readiness changed", slog.Bool("ready", ready))
	}
}

// MarkCycle marks a completed polling cycle and makes the server ready.
func (h *HealthServer) MarkCycle(at time.Time, trackedVideos int) {
	h.lastCycleUnix.Store(at.Unix())
	h.trackedVideos.Store(int64(trackedVideos))
	h.SetReady(true)
}

// handleLiveness handles the /health endpoint (liveness probe).
// Always returns 200 OK with {"status":"ok"}.
func (h *HealthServer) handleLiveness(w http.ResponseWriter, r *http.Request) {
	h.write(w, http.StatusOK, healthResponse{Status: "ok"})
}

// handleReadiness handles the /health/ready endpoint (readiness probe).
func (h *HealthServer) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if !h.isReady.Load() {
		h.write(w, http.StatusServiceUnavailable, healthResponse{Status: "not ready"})
		return
	}

	last := time.Unix(h.lastCycleUnix.Load(), 0).UTC()
	videos := h.trackedVideos.Load()
	resp := healthResponse{Status: "ok", LastCycleAt: &last, TrackedVideos: &videos}

	if h.staleAfter > 0 && h.now().Sub(last) > h.staleAfter {
		resp.Status = "stale"
		h.write(w, http.StatusServiceUnavailable, resp)
		return
	}
	h.write(w, http.StatusOK, resp)
}

func (h *HealthServer) write(w http.ResponseWriter, status int, body healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
