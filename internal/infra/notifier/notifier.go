// Package notifier fires outbound webhook triggers.
//
// A trigger is a plain HTTP GET without payload. The receiving side decides
// what to do with it (play a sound, flash a light, post a message). The
// package defines the Trigger interface, a webhook implementation and a no-op
// implementation for dry runs.
package notifier

import (
	"context"
	"time"

	"engagement-watch/internal/domain/entity"
)

// Trigger sends one notification that count new events of kind were detected.
type Trigger interface {
	// Fire performs a single attempt. It never retries.
	//
	// Parameters:
	//   - ctx: Context for cancellation; the implementation applies its own short timeout
	//   - kind: What was detected (likes or subscribers)
	//   - count: The positive delta that caused the trigger
	//
	// Returns:
	//   - Delivery: Request ID, status code and duration; populated as far as the attempt got
	//   - error: *ClientError, *ServerError, *RateLimitError, or a transport error
	Fire(ctx context.Context, kind entity.TriggerKind, count int64) (Delivery, error)
}

// Delivery describes one trigger attempt.
type Delivery struct {
	// RequestID is a UUID sent as X-Request-ID and used in logs.
	RequestID string

	// StatusCode is the HTTP status of the response, or 0 when none was received.
	StatusCode int

	// Duration is the wall time of the attempt.
	Duration time.Duration
}
