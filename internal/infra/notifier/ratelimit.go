package notifier

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter keeps one token bucket per receiver host, so several triggers
// pointing at the same device share its budget.
type HostLimiter struct {
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// NewHostLimiter creates a HostLimiter.
//
// Parameters:
//   - requestsPerSecond: Sustained rate per host (e.g., 1.0)
//   - burst: Requests allowed at once per host (e.g., 2)
//
// Example:
//
//	limiter := NewHostLimiter(1.0, 2)
func NewHostLimiter(requestsPerSecond float64, burst int) *HostLimiter {
	return &HostLimiter{
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a token for rawURL's host is available or ctx is done.
func (h *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	return h.forHost(hostOf(rawURL)).Wait(ctx)
}

func (h *HostLimiter) forHost(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(h.rate, h.burst)
		h.limiters[host] = l
	}
	return l
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
