package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engagement-watch/internal/domain/entity"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("YOUTUBE_API_KEY", "test-key")
	t.Setenv("YOUTUBE_CHANNEL_ID", "UC123")
	t.Setenv("LIKE_TRIGGER_URL", "http://hooks.local/like")
	t.Setenv("SUBSCRIBER_TRIGGER_URL", "http://hooks.local/subscriber")
	t.Setenv("TIMEZONE", "")
	t.Setenv("START_TIME", "")
	t.Setenv("END_TIME", "")
	t.Setenv("YOUTUBE_API_BASE_URL", "")
}

func TestLoadChannelConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadChannelConfig()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, "UC123", cfg.ChannelID)
	assert.Equal(t, "http://hooks.local/like", cfg.LikeTriggerURL)
	assert.Equal(t, "http://hooks.local/subscriber", cfg.SubscriberTriggerURL)
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	assert.Equal(t, 8, cfg.SilentStartHour)
	assert.Equal(t, 20, cfg.SilentEndHour)
	assert.Empty(t, cfg.APIBaseURL)
}

func TestLoadChannelConfig_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TIMEZONE", "Europe/Berlin")
	t.Setenv("START_TIME", "9")
	t.Setenv("END_TIME", "22")
	t.Setenv("YOUTUBE_API_BASE_URL", "http://127.0.0.1:8080/")

	cfg, err := LoadChannelConfig()
	require.NoError(t, err)

	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, 9, cfg.SilentStartHour)
	assert.Equal(t, 22, cfg.SilentEndHour)
	assert.Equal(t, "http://127.0.0.1:8080/", cfg.APIBaseURL)
}

func TestLoadChannelConfig_MissingRequired(t *testing.T) {
	keys := []string{"YOUTUBE_API_KEY", "YOUTUBE_CHANNEL_ID", "LIKE_TRIGGER_URL", "SUBSCRIBER_TRIGGER_URL"}

	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(key, "")

			cfg, err := LoadChannelConfig()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.True(t, errors.Is(err, ErrMissingRequired))
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadChannelConfig_ReportsEveryMissingKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("YOUTUBE_API_KEY", "")
	t.Setenv("LIKE_TRIGGER_URL", "")

	_, err := LoadChannelConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YOUTUBE_API_KEY")
	assert.Contains(t, err.Error(), "LIKE_TRIGGER_URL")
}

func TestLoadChannelConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "unknown timezone", key: "TIMEZONE", value: "Mars/Base", wantErr: "invalid timezone"},
		{name: "start hour too large", key: "START_TIME", value: "24", wantErr: "invalid hour of day"},
		{name: "end hour negative", key: "END_TIME", value: "-1", wantErr: "invalid hour of day"},
		{name: "non numeric hour", key: "START_TIME", value: "eight", wantErr: "invalid integer format"},
		{name: "bad trigger scheme", key: "LIKE_TRIGGER_URL", value: "ftp://hooks.local/like", wantErr: "LIKE_TRIGGER_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := LoadChannelConfig()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestChannelConfig_Validate_TriggerURLIsValidationError(t *testing.T) {
	cfg := &ChannelConfig{
		APIKey:               "k",
		ChannelID:            "c",
		LikeTriggerURL:       "not a url",
		SubscriberTriggerURL: "http://hooks.local/s",
		Timezone:             "UTC",
		SilentStartHour:      8,
		SilentEndHour:        20,
	}

	err := cfg.Validate()
	require.Error(t, err)

	var vErr *entity.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "LIKE_TRIGGER_URL", vErr.Field)
	assert.True(t, errors.Is(err, entity.ErrInvalidInput))
}
