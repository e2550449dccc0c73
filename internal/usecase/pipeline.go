package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"FeedConsolidator/internal/domain"
	"FeedConsolidator/internal/ports"
)

// itemSummaryMaxRunes caps the summary shown in an auto-published message.
const itemSummaryMaxRunes = 300

// PipelineDeps wires the driven adapters into the auto-publish pipeline.
type PipelineDeps struct {
	Source   ports.FeedSource
	Tracking ports.TrackingStore
	Notifier ports.Notifier
	Channel  string
	Logger   *slog.Logger
}

// Pipeline is the auto-publish workflow: fetch every enabled feed, filter,
// post one message per surviving item, and rewrite the delivery record.
type Pipeline struct {
	source   ports.FeedSource
	tracking ports.TrackingStore
	notifier ports.Notifier
	channel  string
	logger   *slog.Logger
	now      func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:   deps.Source,
		tracking: deps.Tracking,
		notifier: deps.Notifier,
		channel:  deps.Channel,
		logger:   deps.Logger,
		now:      time.Now,
	}
}

// Run executes one batch. Per-feed and per-item failures are logged and
// skipped; only state I/O errors propagate and abort the run.
func (p *Pipeline) Run(ctx context.Context, registry domain.Registry) error {
	tracking, err := p.tracking.LoadTracking(ctx)
	if err != nil {
		return fmt.Errorf("load tracking: %w", err)
	}

	delivered := tracking.PostedSet()
	seen := map[string]struct{}{}
	filter := NewFilter(registry.Settings)

	var candidates []domain.Item
	for _, feed := range registry.EnabledFeeds() {
		p.logger.Info("checking feed", "feed", feed.ID, "name", feed.Name)

		items, fetchErr := p.source.Fetch(ctx, feed)
		tracking.RecordFeedCheck(feed.ID, p.now().UTC(), fetchErr != nil)
		if fetchErr != nil {
			p.logger.Warn("feed skipped", "feed", feed.ID, "error", fetchErr)
			continue
		}

		survivors := filter.Apply(items, feed.Keywords, delivered, seen)
		p.logger.Debug("feed filtered", "feed", feed.ID, "fetched", len(items), "survived", len(survivors))
		candidates = append(candidates, survivors...)
	}

	OrderCandidates(candidates)
	selected := SelectTop(candidates, registry.Settings.MaxPostsPerRun)
	if len(candidates) > len(selected) {
		p.logger.Info("candidate cap reached", "cap", registry.Settings.MaxPostsPerRun, "dropped", len(candidates)-len(selected))
	}

	posted := 0
	for _, item := range selected {
		msg := formatItemMessage(item)
		if _, err := p.notifier.PostMessage(ctx, p.channel, msg); err != nil {
			// The id stays out of the delivery record, so the item is a
			// candidate again next run.
			p.logger.Error("delivery failed", "item", item.ID, "title", item.Title, "error", err)
			continue
		}
		tracking.MarkPosted(item.ID)
		posted++
		p.logger.Info("posted", "item", item.ID, "title", item.Title, "score", item.Score)
	}

	now := p.now().UTC()
	tracking.LastCheck = now
	tracking.Stats.TotalItemsPosted += posted
	tracking.Stats.LastRunPosted = posted
	tracking.Stats.LastRunTime = now

	if err := p.tracking.SaveTracking(ctx, tracking); err != nil {
		return fmt.Errorf("save tracking: %w", err)
	}

	p.logger.Info("run complete", "posted", posted, "tracked", len(tracking.PostedItems))
	return nil
}

func formatItemMessage(item domain.Item) ports.Message {
	summary := truncateWithEllipsis(item.Summary, itemSummaryMaxRunes)
	text := fmt.Sprintf("*%s*\n\n%s\n\n<%s|Read more> • Source: %s",
		item.Title, summary, item.Link, item.FeedName)
	return ports.Message{Text: text}
}

func truncateWithEllipsis(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
