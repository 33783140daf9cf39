package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// scheduleParser accepts five-field cron expressions and descriptors such as
// "@hourly" or "@every 6h".
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a cron expression or descriptor into a schedule whose
// Next method yields activation times.
//
// Example:
//
//	sched, err := ParseSchedule("@every 6h")
//	next := sched.Next(time.Now())
func ParseSchedule(schedule string) (cron.Schedule, error) {
	if schedule == "" {
		return nil, fmt.Errorf("invalid cron schedule: cannot be empty")
	}

	sched, err := scheduleParser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}

	return sched, nil
}

// ValidateCronSchedule validates a cron expression or descriptor.
//
// Accepted forms:
//   - "minute hour day month weekday", e.g. "0 */6 * * *"
//   - descriptors, e.g. "@hourly", "@daily", "@every 6h"
func ValidateCronSchedule(schedule string) error {
	_, err := ParseSchedule(schedule)
	return err
}

// ValidateTimezone validates an IANA timezone name by loading it.
//
// Common issues:
//   - Missing tzdata in the container image
//   - Using a UTC offset instead of an IANA name (e.g., "+09:00" instead of "Asia/Tokyo")
func ValidateTimezone(timezone string) error {
	if timezone == "" {
		return fmt.Errorf("invalid timezone: cannot be empty")
	}

	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", timezone, err)
	}

	return nil
}

// ValidateHour validates an hour of day (0-23).
func ValidateHour(hour int) error {
	if err := ValidateIntRange(hour, 0, 23); err != nil {
		return fmt.Errorf("invalid hour of day: %w", err)
	}
	return nil
}

// ValidateDuration validates that a duration lies within [min, max].
func ValidateDuration(duration, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	}

	if duration < min {
		return fmt.Errorf("duration %v is below minimum %v", duration, min)
	}

	if duration > max {
		return fmt.Errorf("duration %v exceeds maximum %v", duration, max)
	}

	return nil
}

// ValidateIntRange validates that value lies within [min, max].
//
// Use cases:
//   - Port number validation (e.g., 1024-65535)
//   - Hour-of-day validation (0-23)
func ValidateIntRange(value, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	}

	if value < min {
		return fmt.Errorf("value %d is below minimum %d", value, min)
	}

	if value > max {
		return fmt.Errorf("value %d exceeds maximum %d", value, max)
	}

	return nil
}
