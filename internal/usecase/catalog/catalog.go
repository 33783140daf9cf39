// Package catalog holds the set of video ids the watcher polls.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"engagement-watch/internal/infra/youtube"
)

// VideoLister returns a channel's most recent video ids, newest first.
type VideoLister interface {
	LatestVideoIDs(ctx context.Context, channelID string) ([]string, error)
}

// Recorder receives refresh outcomes. *worker.WorkerMetrics implements it.
type Recorder interface {
	RecordCatalogRefresh(result string, size int)
}

type nopRecorder struct{}

func (nopRecorder) RecordCatalogRefresh(string, int) {}

// Catalog owns the current video id sequence for one channel.
//
// A successful Refresh replaces the sequence wholesale. A failed Refresh
// leaves it untouched. Reads are safe from other goroutines.
type Catalog struct {
	channelID string
	lister    VideoLister
	recorder  Recorder
	logger    *slog.Logger

	mu  sync.RWMutex
	ids []string
}

// New creates an empty Catalog. recorder and logger may be nil.
func New(channelID string, lister VideoLister, recorder Recorder, logger *slog.Logger) *Catalog {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		channelID: channelID,
		lister:    lister,
		recorder:  recorder,
		logger:    logger,
	}
}

// Refresh fetches the latest video ids and replaces the held sequence.
//
// Returns:
//   - error: The lister error, wrapped; the previous sequence is kept
func (c *Catalog) Refresh(ctx context.Context) error {
	ids, err := c.lister.LatestVideoIDs(ctx, c.channelID)
	if err != nil {
		c.recorder.RecordCatalogRefresh("failure", 0)
		c.logger.ErrorContext(ctx, "catalog refresh failed, keeping previous video set",
			slog.String("channel_id", c.channelID),
			slog.Int("kept_videos", c.Len()),
			slog.Int("status_code", youtube.StatusCode(err)),
			slog.Any("error", err))
		return fmt.Errorf("refresh catalog: %w", err)
	}

	fresh := make([]string, len(ids))
	copy(fresh, ids)

	c.mu.Lock()
	c.ids = fresh
	c.mu.Unlock()

	c.recorder.RecordCatalogRefresh("success", len(fresh))
	c.logger.InfoContext(ctx, "catalog refreshed",
		slog.String("channel_id", c.channelID),
		slog.Int("videos", len(fresh)))
	return nil
}

// IDs returns a copy of the current sequence.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Len returns the number of held ids.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ids)
}
