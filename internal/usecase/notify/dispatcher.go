// Package notify decides whether a detected delta becomes an outbound trigger
// and reports what happened as a Result.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"engagement-watch/internal/domain/entity"
	"engagement-watch/internal/infra/notifier"
)

// Status is the outcome of one dispatch.
type Status string

const (
	// StatusSent means the trigger request completed with a 2xx status.
	StatusSent Status = "sent"
	// StatusSuppressed means the delta fell inside silent hours.
	StatusSuppressed Status = "suppressed"
	// StatusFailed means the trigger request was attempted (or impossible) and failed.
	StatusFailed Status = "failed"
	// StatusSkipped means there was nothing to report (count <= 0).
	StatusSkipped Status = "skipped"
)

// Result describes one dispatch. Err is set only for StatusFailed.
type Result struct {
	Kind       entity.TriggerKind
	Count      int64
	Status     Status
	StatusCode int
	Err        error
	RequestID  string
}

// SilenceChecker reports whether triggers are suppressed at a given time.
// *quiethours.Gate implements it.
type SilenceChecker interface {
	IsSilent(now time.Time) bool
}

// Dispatcher sends at most one trigger per call. It never retries, and it
// never touches tracker state: a failed trigger is simply lost.
type Dispatcher struct {
	triggers map[entity.TriggerKind]notifier.Trigger
	gate     SilenceChecker
	now      func() time.Time
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher.
//
// Parameters:
//   - triggers: One trigger per kind; a missing kind makes Dispatch fail with ErrNoTrigger
//   - gate: Silent-hours check
//   - logger: Structured logger; nil means slog.Default()
func NewDispatcher(triggers map[entity.TriggerKind]notifier.Trigger, gate SilenceChecker, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		triggers: triggers,
		gate:     gate,
		now:      time.Now,
		logger:   logger,
	}
}

// Dispatch fires the trigger for kind when count > 0 and the current time is
// outside silent hours. The outcome is logged, counted and returned.
func (d *Dispatcher) Dispatch(ctx context.Context, kind entity.TriggerKind, count int64) Result {
	res := Result{Kind: kind, Count: count}
	defer func() { RecordOutcome(kind.String(), res.Status) }()

	if count <= 0 {
		res.Status = StatusSkipped
		return res
	}

	if d.gate.IsSilent(d.now()) {
		res.Status = StatusSuppressed
		d.logger.InfoContext(ctx, "new events detected within silent hours, trigger suppressed",
			slog.String("kind", kind.String()),
			slog.Int64("count", count))
		return res
	}

	trigger, ok := d.triggers[kind]
	if !ok || trigger == nil {
		res.Status = StatusFailed
		res.Err = fmt.Errorf("%w: %s", ErrNoTrigger, kind)
		RecordFailure(kind.String(), "not_configured")
		d.logger.ErrorContext(ctx, "trigger dispatch failed",
			slog.String("kind", kind.String()),
			slog.Any("error", res.Err))
		return res
	}

	delivery, err := trigger.Fire(ctx, kind, count)
	res.RequestID = delivery.RequestID
	res.StatusCode = delivery.StatusCode
	RecordDuration(kind.String(), delivery.Duration)

	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		RecordFailure(kind.String(), notifier.ErrorKind(err))
		d.logger.ErrorContext(ctx, "trigger request failed",
			slog.String("request_id", delivery.RequestID),
			slog.String("kind", kind.String()),
			slog.Int64("count", count),
			slog.Int("status_code", delivery.StatusCode),
			slog.Any("error", err))
		return res
	}

	res.Status = StatusSent
	d.logger.InfoContext(ctx, "new events detected, trigger sent",
		slog.String("request_id", delivery.RequestID),
		slog.String("kind", kind.String()),
		slog.Int64("count", count),
		slog.Int("status_code", delivery.StatusCode),
		slog.Duration("duration", delivery.Duration))
	return res
}
