package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"engagement-watch/internal/domain/entity"
)

// DefaultTimeout bounds a single trigger request.
const DefaultTimeout = 10 * time.Second

const maxSnippetLength = 256

var errTimeout = errors.New("trigger request timed out")

// WebhookConfig contains configuration for one webhook trigger.
type WebhookConfig struct {
	// URL receives a GET request for every trigger.
	URL string

	// Timeout is the HTTP client timeout. Zero means DefaultTimeout.
	Timeout time.Duration
}

// WebhookTrigger fires a trigger by issuing GET to a configured URL.
type WebhookTrigger struct {
	config     WebhookConfig
	httpClient *http.Client
	limiter    *HostLimiter
	logger     *slog.Logger
}

// NewWebhookTrigger creates a WebhookTrigger.
//
// Parameters:
//   - config: Target URL and timeout
//   - limiter: Shared per-host limiter; nil creates a private one at 1 req/s with burst 2
//   - logger: Structured logger; nil means slog.Default()
//
// Returns:
//   - *WebhookTrigger: Configured trigger
func NewWebhookTrigger(config WebhookConfig, limiter *HostLimiter, logger *slog.Logger) *WebhookTrigger {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if limiter == nil {
		limiter = NewHostLimiter(1.0, 2)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookTrigger{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter: limiter,
		logger:  logger,
	}
}

// Fire sends a single GET to the configured URL.
//
// It performs the following steps:
//  1. Generate a unique request_id for tracing
//  2. Wait for the per-host rate limiter
//  3. Send the request, discarding the response body
//  4. Classify non-2xx statuses into typed errors
//
// There is no retry: a lost trigger is acceptable, a duplicated one is not.
func (w *WebhookTrigger) Fire(ctx context.Context, kind entity.TriggerKind, count int64) (d Delivery, err error) {
	d.RequestID = uuid.NewString()
	start := time.Now()
	defer func() { d.Duration = time.Since(start) }()

	if err := w.limiter.Wait(ctx, w.config.URL); err != nil {
		return d, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.config.URL, nil)
	if err != nil {
		return d, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("X-Request-ID", d.RequestID)

	w.logger.DebugContext(ctx, "sending trigger",
		slog.String("request_id", d.RequestID),
		slog.String("kind", kind.String()),
		slog.Int64("count", count))

	resp, err := w.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return d, fmt.Errorf("%w after %v: %w", errTimeout, w.config.Timeout, err)
		}
		return d, fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	d.StatusCode = resp.StatusCode
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxSnippetLength+1))

	if err := StatusError(resp, truncate(string(body), maxSnippetLength)); err != nil {
		return d, err
	}
	return d, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
