package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"FeedConsolidator/internal/domain"
	"FeedConsolidator/internal/ports"
)

const (
	// reviewLookback is how far back the curated fetch collects articles; the
	// review page shows a week, not just the last run.
	reviewLookback = 7 * 24 * time.Hour

	// reminderLookback bounds which unpublished articles count toward the
	// daily reminder.
	reminderLookback = 24 * time.Hour
)

// CuratorDeps wires the adapters used by the curated-publish workflow.
type CuratorDeps struct {
	Source          ports.FeedSource
	Store           ports.ReviewStore
	Notifier        ports.Notifier
	FallbackChannel string
	FallbackUserID  string
	Logger          *slog.Logger
}

// Curator implements the human-in-the-loop flow: collect articles for review,
// publish an explicitly selected set as one digest, and nudge the reviewer.
type Curator struct {
	source          ports.FeedSource
	store           ports.ReviewStore
	notifier        ports.Notifier
	fallbackChannel string
	fallbackUserID  string
	logger          *slog.Logger
	now             func() time.Time
}

// NewCurator constructs the curated-publish workflow.
func NewCurator(deps CuratorDeps) *Curator {
	return &Curator{
		source:          deps.Source,
		store:           deps.Store,
		notifier:        deps.Notifier,
		fallbackChannel: deps.FallbackChannel,
		fallbackUserID:  deps.FallbackUserID,
		logger:          deps.Logger,
		now:             time.Now,
	}
}

// FetchForReview collects the last week of articles from every enabled feed
// into the shared snapshot the review UI reads. Entries already in the
// snapshot keep their identity (and id) when re-encountered by link.
func (c *Curator) FetchForReview(ctx context.Context, registry domain.Registry) error {
	existing, err := c.store.LoadArticles(ctx)
	if err != nil {
		return fmt.Errorf("load articles: %w", err)
	}

	byLink := make(map[string]domain.Item, len(existing.Articles))
	for _, article := range existing.Articles {
		byLink[article.Link] = article
	}

	cutoff := c.now().UTC().Add(-reviewLookback)
	var collected []domain.Item

	for _, feed := range registry.EnabledFeeds() {
		c.logger.Info("fetching feed", "feed", feed.ID, "name", feed.Name)

		items, fetchErr := c.source.Fetch(ctx, feed)
		if fetchErr != nil {
			c.logger.Warn("feed skipped", "feed", feed.ID, "error", fetchErr)
			continue
		}

		kept := 0
		for _, item := range items {
			if prior, ok := byLink[item.Link]; ok {
				if !prior.PublishedAt.Before(cutoff) {
					collected = append(collected, prior)
					kept++
				}
				continue
			}
			if item.PublishedAt.Before(cutoff) {
				continue
			}
			collected = append(collected, item)
			kept++
		}
		c.logger.Info("feed collected", "feed", feed.ID, "articles", kept)
	}

	sort.SliceStable(collected, func(i, j int) bool {
		return collected[i].PublishedAt.After(collected[j].PublishedAt)
	})

	set := domain.ArticleSet{Articles: collected, LastUpdated: c.now().UTC()}
	if err := c.store.SaveArticles(ctx, set); err != nil {
		return fmt.Errorf("save articles: %w", err)
	}

	c.logger.Info("fetch complete", "articles", len(collected))
	return nil
}

// PublishSelected validates the requested article ids against the snapshot,
// formats them into a single templated digest, posts it in one call, and
// records the ids as published.
func (c *Curator) PublishSelected(ctx context.Context, articleIDs []string) error {
	if len(articleIDs) == 0 {
		return fmt.Errorf("no article ids given")
	}

	set, err := c.store.LoadArticles(ctx)
	if err != nil {
		return fmt.Errorf("load articles: %w", err)
	}
	settings, err := c.store.LoadReviewSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	published, err := c.store.LoadPublished(ctx)
	if err != nil {
		return fmt.Errorf("load published: %w", err)
	}

	index := set.ByID()
	articles := make([]domain.Item, 0, len(articleIDs))
	for _, id := range articleIDs {
		article, ok := index[id]
		if !ok {
			c.logger.Warn("article id not found", "id", id)
			continue
		}
		articles = append(articles, article)
	}
	if len(articles) == 0 {
		return fmt.Errorf("no valid articles to publish")
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})

	channel := settings.NewsChannelID
	if channel == "" {
		channel = c.fallbackChannel
	}

	digest := RenderDigest(settings.MessageTemplate, articles)
	msg := ports.Message{
		Text:   fmt.Sprintf("Daily News Digest - %d articles", len(articles)),
		Blocks: []ports.Block{{Type: "section", Markdown: digest}},
	}

	ts, err := c.notifier.PostMessage(ctx, channel, msg)
	if err != nil {
		return fmt.Errorf("publish digest: %w", err)
	}

	now := c.now().UTC()
	published.Append(domain.PublishRecord{
		Date:         now.Format("2006-01-02"),
		ArticleIDs:   articleIDs,
		ArticleCount: len(articleIDs),
		SlackTS:      ts,
		PublishedAt:  now,
	})
	if err := c.store.SavePublished(ctx, published); err != nil {
		return fmt.Errorf("save published: %w", err)
	}

	c.logger.Info("digest published", "articles", len(articles), "ts", ts)
	return nil
}

// Remind sends the reviewer a DM with the count of unpublished articles from
// the last day and a button linking to the review page.
func (c *Curator) Remind(ctx context.Context) error {
	set, err := c.store.LoadArticles(ctx)
	if err != nil {
		return fmt.Errorf("load articles: %w", err)
	}
	settings, err := c.store.LoadReviewSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	published, err := c.store.LoadPublished(ctx)
	if err != nil {
		return fmt.Errorf("load published: %w", err)
	}

	userID := settings.SlackUserID
	if userID == "" {
		userID = c.fallbackUserID
	}
	if userID == "" {
		return fmt.Errorf("no reviewer user id configured")
	}

	count := CountUnpublished(set.Articles, published.PublishedSet(), c.now().UTC().Add(-reminderLookback))
	msg := reminderMessage(count, settings.ReviewURL)

	if _, err := c.notifier.PostMessage(ctx, userID, msg); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}

	c.logger.Info("reminder sent", "user", userID, "unpublished", count)
	return nil
}

// CountUnpublished counts articles published upstream after cutoff whose ids
// are not yet in the published set.
func CountUnpublished(articles []domain.Item, publishedIDs map[string]struct{}, cutoff time.Time) int {
	count := 0
	for _, article := range articles {
		if _, ok := publishedIDs[article.ID]; ok {
			continue
		}
		if article.PublishedAt.Before(cutoff) {
			continue
		}
		count++
	}
	return count
}

func reminderMessage(count int, reviewURL string) ports.Message {
	var text string
	switch count {
	case 0:
		text = "Good morning! No new articles to review today."
	case 1:
		text = "Good morning! You have 1 new article to review."
	default:
		text = fmt.Sprintf("Good morning! You have %d new articles to review.", count)
	}

	blocks := []ports.Block{
		{Type: "section", Markdown: "*" + text + "*"},
		{Type: "section", Markdown: "Review and publish articles from your RSS feeds:"},
	}
	if reviewURL != "" {
		blocks = append(blocks, ports.Block{
			Type: "actions",
			Buttons: []ports.Button{
				{Label: "Review Articles", URL: reviewURL, Style: "primary"},
			},
		})
	}

	return ports.Message{Text: text, Blocks: blocks}
}
