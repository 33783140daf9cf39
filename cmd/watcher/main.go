package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"engagement-watch/internal/config"
	"engagement-watch/internal/domain/entity"
	"engagement-watch/internal/infra/notifier"
	workerPkg "engagement-watch/internal/infra/worker"
	"engagement-watch/internal/infra/youtube"
	"engagement-watch/internal/observability/logging"
	pkgconfig "engagement-watch/internal/pkg/config"
	"engagement-watch/internal/usecase/catalog"
	"engagement-watch/internal/usecase/fetch"
	"engagement-watch/internal/usecase/notify"
	"engagement-watch/internal/usecase/poll"
	"engagement-watch/internal/usecase/quiethours"
)

const (
	// triggerRequestsPerSecond caps outbound trigger requests per host.
	triggerRequestsPerSecond = 1
	triggerBurst             = 2
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	logger := initLogger()

	channelCfg, err := config.LoadChannelConfig()
	if err != nil {
		logger.Error("failed to load channel configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	schedule, err := pkgconfig.ParseSchedule(workerConfig.CatalogSchedule)
	if err != nil {
		logger.Error("invalid catalog schedule", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("watcher configuration loaded",
		slog.String("channel_id", channelCfg.ChannelID),
		slog.String("timezone", channelCfg.Timezone),
		slog.Int("silent_start_hour", channelCfg.SilentStartHour),
		slog.Int("silent_end_hour", channelCfg.SilentEndHour),
		slog.Duration("poll_interval", workerConfig.PollInterval),
		slog.String("catalog_schedule", workerConfig.CatalogSchedule),
		slog.Duration("trigger_timeout", workerConfig.TriggerTimeout),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Int("metrics_port", workerConfig.MetricsPort),
		slog.Bool("dry_run", workerConfig.DryRun))

	gate, err := quiethours.New(channelCfg.Timezone, channelCfg.SilentStartHour, channelCfg.SilentEndHour)
	if err != nil {
		logger.Error("failed to build silent-hours gate", slog.Any("error", err))
		os.Exit(1)
	}
	if gate.AlwaysSilent() {
		logger.Warn("silent window start is not before end, every hour is silent and no trigger will fire",
			slog.Int("silent_start_hour", channelCfg.SilentStartHour),
			slog.Int("silent_end_hour", channelCfg.SilentEndHour))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ytConfig := youtube.DefaultConfig(channelCfg.APIKey)
	ytConfig.BaseURL = channelCfg.APIBaseURL
	client, err := youtube.NewClient(ctx, ytConfig)
	if err != nil {
		logger.Error("failed to create YouTube client", slog.Any("error", err))
		os.Exit(1)
	}

	dispatcher := notify.NewDispatcher(setupTriggers(logger, channelCfg, workerConfig), gate, logger)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger, 3*workerConfig.PollInterval)

	poller := poll.New(poll.Config{
		ChannelID:       channelCfg.ChannelID,
		PollInterval:    workerConfig.PollInterval,
		CatalogSchedule: schedule,
	}, poll.Deps{
		Catalog:    catalog.New(channelCfg.ChannelID, client, workerMetrics, logger),
		Fetcher:    fetch.NewService(client, workerMetrics, logger),
		Dispatcher: dispatcher,
		Metrics:    workerMetrics,
		Readiness:  healthServer,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreServerClosed(healthServer.Start(gctx))
	})
	g.Go(func() error {
		return ignoreServerClosed(runMetricsServer(gctx, logger, workerConfig.MetricsPort, client))
	})
	g.Go(func() error {
		return poller.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("watcher stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("watcher stopped")
}

// initLogger initializes the JSON logger and installs it as the default.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// setupTriggers builds one trigger per kind. Dry-run mode swaps every
// trigger for a logging no-op.
func setupTriggers(logger *slog.Logger, channelCfg *config.ChannelConfig, workerConfig *workerPkg.PollerConfig) map[entity.TriggerKind]notifier.Trigger {
	if workerConfig.DryRun {
		logger.Warn("dry run enabled, triggers are logged but not sent")
		noop := notifier.NewNoOpTrigger(logger)
		return map[entity.TriggerKind]notifier.Trigger{
			entity.TriggerLikes:       noop,
			entity.TriggerSubscribers: noop,
		}
	}

	limiter := notifier.NewHostLimiter(triggerRequestsPerSecond, triggerBurst)
	return map[entity.TriggerKind]notifier.Trigger{
		entity.TriggerLikes: notifier.NewWebhookTrigger(notifier.WebhookConfig{
			URL:     channelCfg.LikeTriggerURL,
			Timeout: workerConfig.TriggerTimeout,
		}, limiter, logger),
		entity.TriggerSubscribers: notifier.NewWebhookTrigger(notifier.WebhookConfig{
			URL:     channelCfg.SubscriberTriggerURL,
			Timeout: workerConfig.TriggerTimeout,
		}, limiter, logger),
	}
}

func ignoreServerClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
