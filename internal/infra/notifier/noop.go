package notifier

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"engagement-watch/internal/domain/entity"
)

// NoOpTrigger is a Trigger that only logs. It is used for dry runs so the
// rest of the pipeline (tracking, silent hours, metrics) behaves normally.
type NoOpTrigger struct {
	logger *slog.Logger
}

// NewNoOpTrigger creates a NoOpTrigger. A nil logger means slog.Default().
func NewNoOpTrigger(logger *slog.Logger) *NoOpTrigger {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoOpTrigger{logger: logger}
}

// Fire logs the would-be trigger and reports success.
func (n *NoOpTrigger) Fire(ctx context.Context, kind entity.TriggerKind, count int64) (Delivery, error) {
	d := Delivery{RequestID: uuid.NewString()}
	n.logger.InfoContext(ctx, "dry run: trigger not sent",
		slog.String("request_id", d.RequestID),
		slog.String("kind", kind.String()),
		slog.Int64("count", count))
	return d, nil
}
