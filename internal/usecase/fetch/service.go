// Package fetch reads current like and subscriber counts from the Data API.
//
// The service holds no state: it returns fresh values and leaves comparison
// with earlier cycles to the trackers.
package fetch

import (
	"context"
	"log/slog"

	"engagement-watch/internal/domain/entity"
	"engagement-watch/internal/infra/youtube"
)

// BatchSize is the maximum number of ids per statistics request.
const BatchSize = 50

// StatsSource is the subset of the API client the service needs.
type StatsSource interface {
	VideoStats(ctx context.Context, ids []string) ([]entity.VideoStat, error)
	ChannelStats(ctx context.Context, channelID string) (entity.ChannelStat, error)
}

// Recorder receives per-request outcomes. *worker.WorkerMetrics implements it.
type Recorder interface {
	RecordFetch(kind, result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordFetch(string, string) {}

// Service fetches engagement counts.
type Service struct {
	source   StatsSource
	recorder Recorder
	logger   *slog.Logger
}

// NewService creates a Service. recorder and logger may be nil.
func NewService(source StatsSource, recorder Recorder, logger *slog.Logger) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, recorder: recorder, logger: logger}
}

// FetchVideoLikes returns the like count per video title.
//
// ids are split into batches of at most BatchSize and requested in order.
// A failed batch is logged and skipped; the remaining batches still
// contribute, so the result may be partial. An empty ids slice logs a
// warning and issues no request.
//
// Titles are the map key. Two videos sharing a title collapse into one
// entry (the later one wins) and a warning is logged.
func (s *Service) FetchVideoLikes(ctx context.Context, ids []string) map[string]int64 {
	likes := make(map[string]int64)
	if len(ids) == 0 {
		s.logger.WarnContext(ctx, "no video ids available, skipping like check")
		return likes
	}

	batches := 0
	failed := 0
	for start := 0; start < len(ids); start += BatchSize {
		end := min(start+BatchSize, len(ids))
		batches++

		stats, err := s.source.VideoStats(ctx, ids[start:end])
		if err != nil {
			failed++
			s.recorder.RecordFetch("videos", "failure")
			s.logger.ErrorContext(ctx, "video statistics batch failed",
				slog.Int("batch", batches),
				slog.Int("batch_size", end-start),
				slog.Int("status_code", youtube.StatusCode(err)),
				slog.Any("error", err))
			continue
		}
		s.recorder.RecordFetch("videos", "success")

		for _, v := range stats {
			if _, dup := likes[v.Title]; dup {
				s.logger.WarnContext(ctx, "duplicate video title, last count wins",
					slog.String("title", v.Title),
					slog.String("video_id", v.ID))
			}
			likes[v.Title] = v.Likes
		}
	}

	s.logger.DebugContext(ctx, "video likes fetched",
		slog.Int("videos", len(likes)),
		slog.Int("batches", batches),
		slog.Int("failed_batches", failed))
	return likes
}

// FetchSubscriberCount returns the channel's subscriber count.
// ok is false when the request failed or the channel was not returned;
// callers must then keep their previous value rather than assume zero.
func (s *Service) FetchSubscriberCount(ctx context.Context, channelID string) (count int64, ok bool) {
	stat, err := s.source.ChannelStats(ctx, channelID)
	if err != nil {
		s.recorder.RecordFetch("channel", "failure")
		s.logger.ErrorContext(ctx, "subscriber count fetch failed",
			slog.String("channel_id", channelID),
			slog.Int("status_code", youtube.StatusCode(err)),
			slog.Any("error", err))
		return 0, false
	}
	s.recorder.RecordFetch("channel", "success")
	return stat.Subscribers, true
}
