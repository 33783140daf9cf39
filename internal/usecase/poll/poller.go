// Package poll runs the watcher's single scheduling loop.
//
// Each cycle, in order: refresh the catalog when the schedule says so,
// fetch likes and dispatch the like delta, fetch the subscriber count and
// dispatch the subscriber delta. Then sleep for the poll interval. All work
// happens on the calling goroutine.
package poll

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"engagement-watch/internal/domain/entity"
	"engagement-watch/internal/observability/logging"
	"engagement-watch/internal/usecase/notify"
	"engagement-watch/internal/usecase/track"
)

// Catalog supplies the video ids to poll.
type Catalog interface {
	Refresh(ctx context.Context) error
	IDs() []string
}

// Fetcher reads current counts. *fetch.Service implements it.
type Fetcher interface {
	FetchVideoLikes(ctx context.Context, ids []string) map[string]int64
	FetchSubscriberCount(ctx context.Context, channelID string) (int64, bool)
}

// Dispatcher turns a delta into a trigger. *notify.Dispatcher implements it
// and owns the decision to skip a zero delta.
type Dispatcher interface {
	Dispatch(ctx context.Context, kind entity.TriggerKind, count int64) notify.Result
}

// Metrics records cycle outcomes. *worker.WorkerMetrics implements it.
// RecordDelta ignores non-positive deltas.
type Metrics interface {
	RecordCycle(status string, seconds float64)
	RecordDelta(kind string, delta int64)
}

// Readiness is told about every successful cycle. *worker.HealthServer implements it.
type Readiness interface {
	MarkCycle(at time.Time, trackedVideos int)
}

// Config holds the loop settings.
type Config struct {
	ChannelID       string
	PollInterval    time.Duration
	CatalogSchedule cron.Schedule
}

// Deps are the collaborators of the loop. Metrics and Readiness may be nil.
type Deps struct {
	Catalog    Catalog
	Fetcher    Fetcher
	Dispatcher Dispatcher
	Metrics    Metrics
	Readiness  Readiness
}

// CycleReport summarizes one cycle.
type CycleReport struct {
	CycleID string

	CatalogRefreshed bool
	CatalogErr       error
	Videos           int

	// LikesFetched is the number of titles the like fetch returned.
	LikesFetched int
	NewLikes     int64
	Likes        notify.Result

	SubscribersFetched bool
	NewSubscribers     int64
	Subscribers        notify.Result

	// Panic holds the recovered value when the cycle panicked.
	Panic any
}

// Poller owns the trackers and drives the cycles.
type Poller struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
	now    func() time.Time

	likes       *track.LikeTracker
	subscribers *track.SubscriberTracker
	nextRefresh time.Time
}

// New creates a Poller with empty trackers. The first cycle always refreshes
// the catalog.
func New(cfg Config, deps Deps, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Readiness == nil {
		deps.Readiness = nopReadiness{}
	}
	return &Poller{
		cfg:         cfg,
		deps:        deps,
		logger:      logger,
		now:         time.Now,
		likes:       track.NewLikeTracker(),
		subscribers: track.NewSubscriberTracker(),
	}
}

// Run executes cycles until ctx is cancelled. It returns nil on cancellation.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started",
		slog.String("channel_id", p.cfg.ChannelID),
		slog.Duration("poll_interval", p.cfg.PollInterval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return nil
		case <-timer.C:
		}

		p.RunCycle(ctx)
		timer.Reset(p.cfg.PollInterval)
	}
}

// RunCycle performs one polling cycle. A panic inside the cycle is recovered,
// logged and reported, so the loop keeps running.
//
// The cycle counts as successful when at least one statistics request
// returned data. Only successful cycles reach Readiness.
func (p *Poller) RunCycle(ctx context.Context) (report CycleReport) {
	start := p.now()
	report.CycleID = uuid.NewString()
	ctx = logging.ContextWithCycleID(ctx, report.CycleID)

	defer func() {
		status := "success"
		if !report.Succeeded() {
			status = "failure"
		}
		if r := recover(); r != nil {
			status = "panic"
			report.Panic = r
			p.logger.ErrorContext(ctx, "polling cycle panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
		p.deps.Metrics.RecordCycle(status, p.now().Sub(start).Seconds())
		switch status {
		case "success":
			p.deps.Readiness.MarkCycle(p.now(), report.Videos)
		case "failure":
			p.logger.WarnContext(ctx, "polling cycle fetched no statistics")
		}
	}()

	p.refreshCatalogIfDue(ctx, start, &report)
	p.checkLikes(ctx, &report)
	p.checkSubscribers(ctx, &report)

	p.logger.DebugContext(ctx, "polling cycle finished",
		slog.Int("videos", report.Videos),
		slog.Int("tracked_titles", p.likes.Len()),
		slog.Int64("new_likes", report.NewLikes),
		slog.Int64("new_subscribers", report.NewSubscribers),
		slog.Duration("duration", p.now().Sub(start)))
	return report
}

// Succeeded reports whether the cycle got any statistics back.
func (r CycleReport) Succeeded() bool {
	return r.Panic == nil && (r.LikesFetched > 0 || r.SubscribersFetched)
}

// refreshCatalogIfDue refreshes on the first cycle and whenever the schedule
// has passed. A failed refresh with an empty catalog is retried next cycle.
func (p *Poller) refreshCatalogIfDue(ctx context.Context, now time.Time, report *CycleReport) {
	if !p.nextRefresh.IsZero() && now.Before(p.nextRefresh) {
		return
	}

	report.CatalogRefreshed = true
	report.CatalogErr = p.deps.Catalog.Refresh(ctx)
	if report.CatalogErr != nil && len(p.deps.Catalog.IDs()) == 0 {
		p.logger.WarnContext(ctx, "catalog is empty after failed refresh, retrying next cycle")
		return
	}
	if p.cfg.CatalogSchedule != nil {
		p.nextRefresh = p.cfg.CatalogSchedule.Next(now)
	}
	p.logger.DebugContext(ctx, "next catalog refresh scheduled", slog.Time("at", p.nextRefresh))
}

func (p *Poller) checkLikes(ctx context.Context, report *CycleReport) {
	ids := p.deps.Catalog.IDs()
	report.Videos = len(ids)

	fresh := p.deps.Fetcher.FetchVideoLikes(ctx, ids)
	report.LikesFetched = len(fresh)
	report.NewLikes = p.likes.Observe(fresh)
	p.deps.Metrics.RecordDelta(entity.TriggerLikes.String(), report.NewLikes)
	report.Likes = p.deps.Dispatcher.Dispatch(ctx, entity.TriggerLikes, report.NewLikes)
}

// checkSubscribers leaves the baseline alone when no count was returned.
// There is no delta to hand to the dispatcher in that case.
func (p *Poller) checkSubscribers(ctx context.Context, report *CycleReport) {
	count, ok := p.deps.Fetcher.FetchSubscriberCount(ctx, p.cfg.ChannelID)
	report.SubscribersFetched = ok
	if !ok {
		report.Subscribers = notify.Result{Kind: entity.TriggerSubscribers, Status: notify.StatusSkipped}
		return
	}
	report.NewSubscribers = p.subscribers.Observe(count)
	p.deps.Metrics.RecordDelta(entity.TriggerSubscribers.String(), report.NewSubscribers)
	report.Subscribers = p.deps.Dispatcher.Dispatch(ctx, entity.TriggerSubscribers, report.NewSubscribers)
}

type nopMetrics struct{}

func (nopMetrics) RecordCycle(string, float64) {}
func (nopMetrics) RecordDelta(string, int64)   {}

type nopReadiness struct{}

func (nopReadiness) MarkCycle(time.Time, int) {}
