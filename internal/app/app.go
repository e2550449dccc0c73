package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"FeedConsolidator/internal/config"
	"FeedConsolidator/internal/domain"
	"FeedConsolidator/internal/infrastructure/feed"
	"FeedConsolidator/internal/infrastructure/slack"
	"FeedConsolidator/internal/infrastructure/storage"
	"FeedConsolidator/internal/ports"
	"FeedConsolidator/internal/usecase"
)

// Application wires configuration to adapters and use cases. Each operation
// is a single batch execution; the external scheduler decides when they run.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, logger *slog.Logger) *Application {
	return &Application{cfg: cfg, logger: logger}
}

// RunAuto executes the auto-publish pipeline once.
func (a *Application) RunAuto(ctx context.Context) error {
	lock, err := storage.AcquireRunLock(a.cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	registry, err := storage.LoadRegistry(a.cfg.Storage.FeedsPath)
	if err != nil {
		return err
	}

	tracking, err := a.openTrackingStore()
	if err != nil {
		return err
	}
	defer tracking.Close()

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:   a.feedSource(),
		Tracking: tracking,
		Notifier: a.notifier(),
		Channel:  a.cfg.Slack.ChannelID,
		Logger:   a.logger.With("component", "pipeline"),
	})
	return pipeline.Run(ctx, registry)
}

// FetchArticles collects articles into the review snapshot.
func (a *Application) FetchArticles(ctx context.Context) error {
	lock, err := storage.AcquireRunLock(a.cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	registry, err := storage.LoadRegistry(a.cfg.Storage.FeedsPath)
	if err != nil {
		return err
	}

	return a.curator().FetchForReview(ctx, registry)
}

// PublishSelected delivers the chosen articles as one digest.
func (a *Application) PublishSelected(ctx context.Context, rawIDs string) error {
	var articleIDs []string
	if err := json.Unmarshal([]byte(rawIDs), &articleIDs); err != nil {
		return &domain.ConfigError{Err: fmt.Errorf("invalid article ids json: %w", err)}
	}

	lock, err := storage.AcquireRunLock(a.cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	return a.curator().PublishSelected(ctx, articleIDs)
}

// SendReminder DMs the reviewer about unpublished articles.
func (a *Application) SendReminder(ctx context.Context) error {
	return a.curator().Remind(ctx)
}

// UpdateFeeds validates the given document and rewrites the feed registry.
func (a *Application) UpdateFeeds(_ context.Context, rawJSON string) error {
	var registry domain.Registry
	if err := json.Unmarshal([]byte(rawJSON), &registry); err != nil {
		return &domain.ConfigError{Err: fmt.Errorf("invalid feeds json: %w", err)}
	}

	if err := storage.SaveRegistry(a.cfg.Storage.FeedsPath, registry); err != nil {
		return err
	}
	a.logger.Info("feeds updated", "feeds", len(registry.Feeds))
	return nil
}

// UpdateSettings validates and rewrites the review settings; when the
// reminder time or timezone changed it also rewrites the scheduler workflow's
// cron line.
func (a *Application) UpdateSettings(ctx context.Context, rawJSON string) error {
	var settings domain.ReviewSettings
	if err := json.Unmarshal([]byte(rawJSON), &settings); err != nil {
		return &domain.ConfigError{Err: fmt.Errorf("invalid settings json: %w", err)}
	}
	if err := usecase.ValidateReviewSettings(settings); err != nil {
		return &domain.ConfigError{Err: err}
	}

	store := storage.NewJSONStore(a.cfg.Storage.DataDir)
	old, err := store.LoadReviewSettings(ctx)
	if err != nil {
		return err
	}
	timeChanged := old.ReminderTime != settings.ReminderTime ||
		old.ReminderTimezone != settings.ReminderTimezone

	if err := store.SaveReviewSettings(ctx, settings); err != nil {
		return err
	}
	a.logger.Info("settings updated")

	if !timeChanged {
		return nil
	}

	// A broken workflow file must not fail the settings update.
	cron, err := usecase.CronFromLocalTime(settings.ReminderTime, settings.ReminderTimezone, time.Now())
	if err != nil {
		a.logger.Error("cron conversion failed", "error", err)
		return nil
	}
	updated, err := usecase.UpdateWorkflowCron(a.cfg.Storage.WorkflowPath, cron)
	if err != nil {
		a.logger.Error("workflow cron update failed", "error", err)
		return nil
	}
	if updated {
		a.logger.Info("workflow cron updated", "cron", cron)
	} else {
		a.logger.Warn("workflow cron not updated", "path", a.cfg.Storage.WorkflowPath)
	}
	return nil
}

func (a *Application) openTrackingStore() (ports.TrackingStore, error) {
	if a.cfg.Storage.Backend == "sqlite" {
		return storage.OpenSQLiteStore(a.cfg.Storage.SQLitePath)
	}
	return storage.NewJSONStore(a.cfg.Storage.DataDir), nil
}

func (a *Application) curator() *usecase.Curator {
	return usecase.NewCurator(usecase.CuratorDeps{
		Source:          a.feedSource(),
		Store:           storage.NewJSONStore(a.cfg.Storage.DataDir),
		Notifier:        a.notifier(),
		FallbackChannel: a.cfg.Slack.ChannelID,
		FallbackUserID:  a.cfg.Slack.UserID,
		Logger:          a.logger.With("component", "curator"),
	})
}

func (a *Application) feedSource() ports.FeedSource {
	client := &http.Client{Timeout: a.cfg.HTTP.Timeout()}
	return feed.NewGofeedSource(client, a.cfg.HTTP.UserAgent, a.logger.With("component", "source"))
}

func (a *Application) notifier() ports.Notifier {
	client := &http.Client{Timeout: a.cfg.HTTP.Timeout()}
	return slack.NewNotifier(a.cfg.Slack.APIBaseURL, a.cfg.Slack.BotToken, client)
}
