package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"FeedConsolidator/internal/domain"
)

type memReview struct {
	set       domain.ArticleSet
	published domain.Published
	settings  domain.ReviewSettings
}

func (m *memReview) LoadArticles(context.Context) (domain.ArticleSet, error) { return m.set, nil }
func (m *memReview) SaveArticles(_ context.Context, set domain.ArticleSet) error {
	m.set = set
	return nil
}
func (m *memReview) LoadPublished(context.Context) (domain.Published, error) {
	return m.published, nil
}
func (m *memReview) SavePublished(_ context.Context, published domain.Published) error {
	m.published = published
	return nil
}
func (m *memReview) LoadReviewSettings(context.Context) (domain.ReviewSettings, error) {
	return m.settings, nil
}
func (m *memReview) SaveReviewSettings(_ context.Context, settings domain.ReviewSettings) error {
	m.settings = settings
	return nil
}

func newTestCurator(source *fakeSource, store *memReview, notifier *fakeNotifier) *Curator {
	return NewCurator(CuratorDeps{
		Source:          source,
		Store:           store,
		Notifier:        notifier,
		FallbackChannel: "C-FALLBACK",
		FallbackUserID:  "U-FALLBACK",
		Logger:          discardLogger(),
	})
}

func TestFetchForReviewCollectsWindowAndKeepsExisting(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	existing := domain.Item{
		ID: "kept-id", FeedID: "f1", Link: "https://example.org/kept",
		Title: "Kept", PublishedAt: now.Add(-48 * time.Hour),
	}

	source := &fakeSource{items: map[string][]domain.Item{
		"f1": {
			{ID: "regen-id", FeedID: "f1", Link: "https://example.org/kept", Title: "Kept", PublishedAt: now.Add(-48 * time.Hour)},
			{ID: "new-id", FeedID: "f1", Link: "https://example.org/new", Title: "New", PublishedAt: now.Add(-time.Hour)},
			{ID: "stale-id", FeedID: "f1", Link: "https://example.org/stale", Title: "Stale", PublishedAt: now.Add(-8 * 24 * time.Hour)},
		},
	}}
	store := &memReview{set: domain.ArticleSet{Articles: []domain.Item{existing}}}
	curator := newTestCurator(source, store, &fakeNotifier{})

	registry := testRegistry(10, domain.Feed{ID: "f1", Name: "One", URL: "http://x", Enabled: true})
	if err := curator.FetchForReview(context.Background(), registry); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(store.set.Articles) != 2 {
		t.Fatalf("expected 2 articles, got %d: %+v", len(store.set.Articles), store.set.Articles)
	}
	// Newest first, and the re-encountered article keeps its original id.
	if store.set.Articles[0].ID != "new-id" {
		t.Fatalf("expected newest first, got %s", store.set.Articles[0].ID)
	}
	if store.set.Articles[1].ID != "kept-id" {
		t.Fatalf("existing article lost its id: %s", store.set.Articles[1].ID)
	}
	if store.set.LastUpdated.IsZero() {
		t.Fatalf("last_updated not stamped")
	}
}

func TestPublishSelectedDeliversDigestAndRecords(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	store := &memReview{
		set: domain.ArticleSet{Articles: []domain.Item{
			{ID: "a1", FeedID: "f1", FeedName: "One", Title: "First", Link: "https://x/1", PublishedAt: now.Add(-time.Hour)},
			{ID: "a2", FeedID: "f2", FeedName: "Two", Title: "Second", Link: "https://x/2", PublishedAt: now},
		}},
		settings: domain.ReviewSettings{
			NewsChannelID:   "C-NEWS",
			MessageTemplate: "Digest ({count} from {feed_count}):\n{articles}",
		},
	}
	notifier := &fakeNotifier{}
	curator := newTestCurator(&fakeSource{}, store, notifier)

	if err := curator.PublishSelected(context.Background(), []string{"a1", "a2", "missing"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(notifier.messages) != 1 {
		t.Fatalf("digest must be a single message, got %d", len(notifier.messages))
	}
	if notifier.channels[0] != "C-NEWS" {
		t.Fatalf("expected configured channel, got %s", notifier.channels[0])
	}

	digest := notifier.messages[0].Blocks[0].Markdown
	if !strings.Contains(digest, "Digest (2 from 2):") {
		t.Fatalf("template not rendered: %q", digest)
	}
	if !strings.Contains(digest, "Second") || !strings.Contains(digest, "First") {
		t.Fatalf("articles missing from digest: %q", digest)
	}

	published := store.published
	if len(published.PublishedArticles) != 3 {
		t.Fatalf("all requested ids must be recorded, got %+v", published.PublishedArticles)
	}
	if len(published.History) != 1 || published.History[0].SlackTS == "" {
		t.Fatalf("history record missing or without ts: %+v", published.History)
	}
}

func TestPublishSelectedRejectsUnknownOnlyIDs(t *testing.T) {
	t.Parallel()

	store := &memReview{settings: domain.ReviewSettings{NewsChannelID: "C-NEWS"}}
	curator := newTestCurator(&fakeSource{}, store, &fakeNotifier{})

	if err := curator.PublishSelected(context.Background(), []string{"nope"}); err == nil {
		t.Fatalf("expected error for unknown article ids")
	}
	if len(store.published.History) != 0 {
		t.Fatalf("nothing should be recorded on failure")
	}
}

func TestPublishSelectedHistoryCap(t *testing.T) {
	t.Parallel()

	var published domain.Published
	for i := 0; i < domain.HistoryCap+5; i++ {
		published.Append(domain.PublishRecord{Date: "2026-01-01", ArticleIDs: []string{"x"}})
	}
	if len(published.History) != domain.HistoryCap {
		t.Fatalf("history not capped: %d", len(published.History))
	}
	if len(published.PublishedArticles) != 1 {
		t.Fatalf("published ids must be deduplicated: %+v", published.PublishedArticles)
	}
}

func TestRemindCountsRecentUnpublished(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	store := &memReview{
		set: domain.ArticleSet{Articles: []domain.Item{
			{ID: "recent", PublishedAt: now.Add(-2 * time.Hour)},
			{ID: "old", PublishedAt: now.Add(-30 * time.Hour)},
			{ID: "done", PublishedAt: now.Add(-time.Hour)},
		}},
		published: domain.Published{PublishedArticles: []string{"done"}},
		settings: domain.ReviewSettings{
			SlackUserID: "U-REVIEWER",
			ReviewURL:   "https://example.org/review",
		},
	}
	notifier := &fakeNotifier{}
	curator := newTestCurator(&fakeSource{}, store, notifier)

	if err := curator.Remind(context.Background()); err != nil {
		t.Fatalf("remind: %v", err)
	}

	if notifier.channels[0] != "U-REVIEWER" {
		t.Fatalf("reminder must go to the reviewer, got %s", notifier.channels[0])
	}
	msg := notifier.messages[0]
	if !strings.Contains(msg.Text, "1 new article") {
		t.Fatalf("expected a single-article reminder, got %q", msg.Text)
	}

	var hasButton bool
	for _, block := range msg.Blocks {
		for _, button := range block.Buttons {
			if button.URL == "https://example.org/review" {
				hasButton = true
			}
		}
	}
	if !hasButton {
		t.Fatalf("review button missing: %+v", msg.Blocks)
	}
}

func TestCountUnpublishedBoundary(t *testing.T) {
	t.Parallel()

	cutoff := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	articles := []domain.Item{
		{ID: "at", PublishedAt: cutoff},
		{ID: "before", PublishedAt: cutoff.Add(-time.Second)},
	}

	if got := CountUnpublished(articles, map[string]struct{}{}, cutoff); got != 1 {
		t.Fatalf("cutoff is inclusive, got %d", got)
	}
}
