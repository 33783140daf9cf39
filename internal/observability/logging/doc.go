// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for the patterns used by the watcher.
//
// Key features:
//   - JSON output with a LOG_LEVEL-controlled level
//   - Poll cycle ID propagation
//   - cycle_id added to every *Context log call inside a cycle
//
// Example usage:
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//
//	ctx = logging.ContextWithCycleID(ctx, uuid.NewString())
//	logger.InfoContext(ctx, "cycle started") // carries cycle_id
package logging
