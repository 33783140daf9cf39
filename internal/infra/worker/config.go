package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"engagement-watch/internal/pkg/config"
)

// PollerConfig holds the operational settings of the polling loop.
// Identity settings (channel, API key, trigger URLs, silent hours) live in
// internal/config and are strict; everything here is fail-open.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// Example usage:
//
//	cfg, _ := LoadConfigFromEnv(logger, metrics)
//	schedule, _ := config.ParseSchedule(cfg.CatalogSchedule)
type PollerConfig struct {
	// PollInterval is the sleep between two polling cycles.
	// Range: 10s-1h
	// Default: 60s
	PollInterval time.Duration

	// CatalogSchedule decides when the video catalog is refreshed.
	// Accepts a 5-field cron expression or a descriptor such as "@every 6h".
	// Default: "@every 6h"
	CatalogSchedule string

	// TriggerTimeout bounds each outbound trigger request.
	// Range: 1s-1m
	// Default: 10s
	TriggerTimeout time.Duration

	// HealthPort is the port number for the health check HTTP server.
	// Range: 1024-65535 (avoid privileged ports)
	// Default: 9091
	HealthPort int

	// MetricsPort is the port number for the Prometheus metrics server.
	// Range: 1024-65535
	// Default: 9090
	MetricsPort int

	// DryRun replaces the webhook triggers with a logging no-op.
	// Default: false
	DryRun bool
}

// DefaultConfig returns a PollerConfig with default values.
func DefaultConfig() PollerConfig {
	return PollerConfig{
		PollInterval:    60 * time.Second,
		CatalogSchedule: "@every 6h",
		TriggerTimeout:  10 * time.Second,
		HealthPort:      9091,
		MetricsPort:     9090,
		DryRun:          false,
	}
}

// Validate checks if the configuration values are valid.
// All errors are collected and returned together.
func (c *PollerConfig) Validate() error {
	var errs []error

	if err := config.ValidateDuration(c.PollInterval, 10*time.Second, time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("poll interval: %w", err))
	}

	if err := config.ValidateCronSchedule(c.CatalogSchedule); err != nil {
		errs = append(errs, fmt.Errorf("catalog schedule: %w", err))
	}

	if err := config.ValidateDuration(c.TriggerTimeout, time.Second, time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("trigger timeout: %w", err))
	}

	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}

	if c.HealthPort == c.MetricsPort {
		errs = append(errs, fmt.Errorf("health port and metrics port must differ, both are %d", c.HealthPort))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}

	return nil
}

// LoadConfigFromEnv loads poller configuration from environment variables
// with validation and automatic fallback to default values on failure.
//
// This function implements the fail-open strategy:
//  1. Start with DefaultConfig() as base
//  2. Load each field from environment variables
//  3. Validate each loaded value
//  4. If validation fails: use default value, log warning, increment metrics
//  5. Never return error for a bad value
//
// Environment variables:
//   - POLL_INTERVAL: Duration 10s-1h (default: 60s)
//   - CATALOG_REFRESH_SCHEDULE: Cron expression or descriptor (default: "@every 6h")
//   - TRIGGER_TIMEOUT: Duration 1s-1m (default: 10s)
//   - WORKER_HEALTH_PORT: Integer 1024-65535 (default: 9091)
//   - METRICS_PORT: Integer 1024-65535 (default: 9090)
//   - DRY_RUN: Boolean (default: false)
//
// Parameters:
//   - logger: Structured logger for warnings
//   - metrics: Metrics instance for tracking fallbacks
//
// Returns:
//   - *PollerConfig: Valid configuration (never nil)
//   - error: Non-nil only when Validate fails, which after fallbacks means the two ports collide
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*PollerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	cfg.PollInterval = apply(logger, metrics, "poll_interval", &fallbackApplied,
		config.LoadEnvDuration("POLL_INTERVAL", cfg.PollInterval, func(d time.Duration) error {
			return config.ValidateDuration(d, 10*time.Second, time.Hour)
		}))

	cfg.CatalogSchedule = apply(logger, metrics, "catalog_schedule", &fallbackApplied,
		config.LoadEnvWithFallback("CATALOG_REFRESH_SCHEDULE", cfg.CatalogSchedule, config.ValidateCronSchedule))

	cfg.TriggerTimeout = apply(logger, metrics, "trigger_timeout", &fallbackApplied,
		config.LoadEnvDuration("TRIGGER_TIMEOUT", cfg.TriggerTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, time.Second, time.Minute)
		}))

	portRange := func(v int) error { return config.ValidateIntRange(v, 1024, 65535) }
	cfg.HealthPort = apply(logger, metrics, "health_port", &fallbackApplied,
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, portRange))
	cfg.MetricsPort = apply(logger, metrics, "metrics_port", &fallbackApplied,
		config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, portRange))

	cfg.DryRun = apply(logger, metrics, "dry_run", &fallbackApplied,
		config.LoadEnvBool("DRY_RUN", cfg.DryRun))

	metrics.SetFallbackActive(fallbackApplied)
	metrics.RecordLoadTimestamp()

	// Each field already fell back to a valid value; only cross-field rules can fail here.
	if err := cfg.Validate(); err != nil {
		return &cfg, fmt.Errorf("invalid worker configuration: %w", err)
	}

	return &cfg, nil
}

// apply unwraps a load result, logging and counting any fallback.
func apply[T any](logger *slog.Logger, metrics *WorkerMetrics, field string, fallbackApplied *bool, result config.LoadResult[T]) T {
	if result.FallbackApplied {
		*fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field)
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}
	return result.Value
}
