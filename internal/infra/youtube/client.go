// Package youtube is a thin client for the three Data API v3 endpoints the
// watcher needs: search.list, videos.list and channels.list.
//
// Every call waits on a token-bucket limiter and runs through a circuit
// breaker, so a quota-exhausted API is not hit again every cycle.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"engagement-watch/internal/domain/entity"
	"engagement-watch/internal/resilience/circuitbreaker"
)

// MaxResults is the largest page and id batch the Data API accepts.
const MaxResults = 50

var (
	// ErrChannelNotFound is returned when channels.list has no item for the id.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrSubscribersHidden is returned when the channel hides its subscriber count.
	ErrSubscribersHidden = errors.New("subscriber count is hidden")

	// ErrBatchTooLarge is returned when more than MaxResults ids are passed to VideoStats.
	ErrBatchTooLarge = errors.New("too many video ids in one request")
)

// Config holds client settings.
type Config struct {
	// APIKey is sent as the key query parameter on every request.
	APIKey string

	// BaseURL overrides the API root (for example "http://127.0.0.1:8080/").
	// Empty means the library default.
	BaseURL string

	// RequestsPerSecond and Burst configure the request limiter.
	RequestsPerSecond float64
	Burst             int

	// Breaker configures the circuit breaker around every call.
	Breaker circuitbreaker.Config
}

// DefaultConfig returns the production settings for the given key.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:            apiKey,
		RequestsPerSecond: 5,
		Burst:             5,
		Breaker:           circuitbreaker.YouTubeAPIConfig(),
	}
}

// Client calls the Data API.
type Client struct {
	svc     *yt.Service
	limiter *rate.Limiter
	breaker *circuitbreaker.CircuitBreaker
}

// NewClient builds a Client.
//
// Parameters:
//   - ctx: Context used while constructing the underlying service
//   - cfg: Client settings; APIKey is required
//
// Returns:
//   - *Client: Ready client
//   - error: When the key is empty or the service cannot be created
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("youtube: api key is required")
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker = circuitbreaker.YouTubeAPIConfig()
	}
	if cfg.Breaker.IsSuccessful == nil {
		cfg.Breaker.IsSuccessful = isBreakerNeutral
	}

	return &Client{
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: circuitbreaker.New(cfg.Breaker),
	}, nil
}

// LatestVideoIDs returns up to MaxResults of the channel's most recent video ids,
// newest first. Items without a video id are skipped.
func (c *Client) LatestVideoIDs(ctx context.Context, channelID string) ([]string, error) {
	resp, err := call(ctx, c, func() (*yt.SearchListResponse, error) {
		return c.svc.Search.List([]string{"id"}).
			ChannelId(channelID).
			MaxResults(MaxResults).
			Type("video").
			Order("date").
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, fmt.Errorf("search videos for channel %s: %w", channelID, err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		ids = append(ids, item.Id.VideoId)
	}
	return ids, nil
}

// VideoStats returns title and like count for one batch of at most MaxResults ids.
// A missing like count is reported as 0. Items without a snippet are skipped.
func (c *Client) VideoStats(ctx context.Context, ids []string) ([]entity.VideoStat, error) {
	if len(ids) > MaxResults {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(ids), MaxResults)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	resp, err := call(ctx, c, func() (*yt.VideoListResponse, error) {
		return c.svc.Videos.List([]string{"snippet", "statistics"}).
			Id(strings.Join(ids, ",")).
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, fmt.Errorf("list statistics for %d videos: %w", len(ids), err)
	}

	stats := make([]entity.VideoStat, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Snippet == nil {
			continue
		}
		var likes int64
		if item.Statistics != nil {
			likes = int64(item.Statistics.LikeCount)
		}
		stats = append(stats, entity.VideoStat{
			ID:    item.Id,
			Title: item.Snippet.Title,
			Likes: likes,
		})
	}
	return stats, nil
}

// ChannelStats returns the channel's subscriber count.
//
// Returns ErrChannelNotFound when the API has no item for channelID and
// ErrSubscribersHidden when the owner hides the count.
func (c *Client) ChannelStats(ctx context.Context, channelID string) (entity.ChannelStat, error) {
	resp, err := call(ctx, c, func() (*yt.ChannelListResponse, error) {
		return c.svc.Channels.List([]string{"statistics"}).
			Id(channelID).
			Context(ctx).
			Do()
	})
	if err != nil {
		return entity.ChannelStat{}, fmt.Errorf("get statistics for channel %s: %w", channelID, err)
	}

	if len(resp.Items) == 0 || resp.Items[0] == nil || resp.Items[0].Statistics == nil {
		return entity.ChannelStat{}, fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}

	stats := resp.Items[0].Statistics
	if stats.HiddenSubscriberCount {
		return entity.ChannelStat{}, fmt.Errorf("%w: %s", ErrSubscribersHidden, channelID)
	}

	return entity.ChannelStat{
		ID:          channelID,
		Subscribers: int64(stats.SubscriberCount),
	}, nil
}

// call waits for the limiter and runs fn through the breaker.
func call[T any](ctx context.Context, c *Client, fn func() (T, error)) (T, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		var zero T
		return zero, fmt.Errorf("rate limiter: %w", err)
	}
	return circuitbreaker.Call(c.breaker, fn)
}

// StatusCode extracts the HTTP status from an API error, or 0.
func StatusCode(err error) int {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	return 0
}

// isBreakerNeutral keeps caller mistakes and cancellations from tripping the breaker.
func isBreakerNeutral(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	switch StatusCode(err) {
	case http.StatusBadRequest, http.StatusNotFound:
		return true
	}
	return false
}

// BreakerOpen reports whether the client is currently short-circuiting calls.
func (c *Client) BreakerOpen() bool {
	return c.breaker.IsOpen()
}
