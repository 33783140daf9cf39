package config

import (
	"errors"
	"fmt"

	"engagement-watch/internal/domain/entity"
	pkgconfig "engagement-watch/internal/pkg/config"
)

// ErrMissingRequired is returned when a mandatory environment variable is unset.
var ErrMissingRequired = errors.New("missing required configuration")

// Default values for the optional channel settings.
const (
	DefaultTimezone        = "Asia/Tokyo"
	DefaultSilentStartHour = 8
	DefaultSilentEndHour   = 20
)

// ChannelConfig holds the identity of the watched channel, the trigger
// endpoints and the silent-hours window. It is loaded once at startup and
// never modified afterwards.
type ChannelConfig struct {
	// APIKey is the Data API key (YOUTUBE_API_KEY).
	APIKey string

	// ChannelID is the channel whose videos and subscribers are watched (YOUTUBE_CHANNEL_ID).
	ChannelID string

	// LikeTriggerURL receives a GET when new likes are detected (LIKE_TRIGGER_URL).
	LikeTriggerURL string

	// SubscriberTriggerURL receives a GET when new subscribers are detected (SUBSCRIBER_TRIGGER_URL).
	SubscriberTriggerURL string

	// Timezone is the IANA zone name used to evaluate silent hours (TIMEZONE).
	// Default: Asia/Tokyo
	Timezone string

	// SilentStartHour is the first hour-of-day at which triggers are allowed (START_TIME).
	// Default: 8
	SilentStartHour int

	// SilentEndHour is the hour-of-day from which triggers are suppressed again (END_TIME).
	// Default: 20
	SilentEndHour int

	// APIBaseURL overrides the Data API endpoint (YOUTUBE_API_BASE_URL).
	// Empty means the client library default.
	APIBaseURL string
}

// LoadChannelConfig loads the channel configuration from environment variables.
//
// Unlike the operational settings, nothing here falls back: a missing required
// variable, an unknown timezone or an hour outside 0-23 is returned as an error
// and should stop the process.
//
// Returns:
//   - *ChannelConfig: Validated configuration
//   - error: Wrapped ErrMissingRequired, or a validation error
func LoadChannelConfig() (*ChannelConfig, error) {
	cfg := &ChannelConfig{
		Timezone:   pkgconfig.LoadEnvString("TIMEZONE", DefaultTimezone),
		APIBaseURL: pkgconfig.LoadEnvString("YOUTUBE_API_BASE_URL", ""),
	}

	required := []struct {
		key string
		dst *string
	}{
		{"YOUTUBE_API_KEY", &cfg.APIKey},
		{"YOUTUBE_CHANNEL_ID", &cfg.ChannelID},
		{"LIKE_TRIGGER_URL", &cfg.LikeTriggerURL},
		{"SUBSCRIBER_TRIGGER_URL", &cfg.SubscriberTriggerURL},
	}
	var missing []error
	for _, r := range required {
		value, err := pkgconfig.RequireEnvString(r.key)
		if err != nil {
			missing = append(missing, fmt.Errorf("%w: %w", ErrMissingRequired, err))
			continue
		}
		*r.dst = value
	}
	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}

	var err error
	if cfg.SilentStartHour, err = pkgconfig.RequireEnvInt("START_TIME", DefaultSilentStartHour, pkgconfig.ValidateHour); err != nil {
		return nil, fmt.Errorf("invalid channel configuration: %w", err)
	}
	if cfg.SilentEndHour, err = pkgconfig.RequireEnvInt("END_TIME", DefaultSilentEndHour, pkgconfig.ValidateHour); err != nil {
		return nil, fmt.Errorf("invalid channel configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid channel configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration correctness.
func (c *ChannelConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: YOUTUBE_API_KEY", ErrMissingRequired)
	}
	if c.ChannelID == "" {
		return fmt.Errorf("%w: YOUTUBE_CHANNEL_ID", ErrMissingRequired)
	}
	if err := entity.ValidateWebhookURL("LIKE_TRIGGER_URL", c.LikeTriggerURL); err != nil {
		return err
	}
	if err := entity.ValidateWebhookURL("SUBSCRIBER_TRIGGER_URL", c.SubscriberTriggerURL); err != nil {
		return err
	}
	if err := pkgconfig.ValidateTimezone(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	if err := pkgconfig.ValidateHour(c.SilentStartHour); err != nil {
		return fmt.Errorf("START_TIME: %w", err)
	}
	if err := pkgconfig.ValidateHour(c.SilentEndHour); err != nil {
		return fmt.Errorf("END_TIME: %w", err)
	}
	return nil
}
