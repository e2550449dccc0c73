package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"FeedConsolidator/internal/domain"
	"FeedConsolidator/internal/ports"
)

type fakeSource struct {
	items map[string][]domain.Item
	errs  map[string]error
}

func (s *fakeSource) Fetch(_ context.Context, feed domain.Feed) ([]domain.Item, error) {
	if err := s.errs[feed.ID]; err != nil {
		return nil, err
	}
	return s.items[feed.ID], nil
}

type memTracking struct {
	tracking domain.Tracking
	saves    int
}

func (m *memTracking) LoadTracking(context.Context) (domain.Tracking, error) {
	return m.tracking, nil
}

func (m *memTracking) SaveTracking(_ context.Context, tracking domain.Tracking) error {
	tracking.Trim()
	m.tracking = tracking
	m.saves++
	return nil
}

func (m *memTracking) Close() error { return nil }

type fakeNotifier struct {
	messages  []ports.Message
	channels  []string
	failTexts []string
}

func (n *fakeNotifier) PostMessage(_ context.Context, channel string, msg ports.Message) (string, error) {
	for _, fail := range n.failTexts {
		if strings.Contains(msg.Text, fail) {
			return "", &domain.DeliveryError{Err: errors.New("rate limited")}
		}
	}
	n.channels = append(n.channels, channel)
	n.messages = append(n.messages, msg)
	return "1700000000.000100", nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry(maxPosts int, feeds ...domain.Feed) domain.Registry {
	return domain.Registry{
		Feeds: feeds,
		Settings: domain.PipelineSettings{
			MinRelevanceScore: 0.5,
			MaxPostsPerRun:    maxPosts,
			HoursLookback:     24,
		},
	}
}

func newTestPipeline(source *fakeSource, tracking *memTracking, notifier *fakeNotifier) *Pipeline {
	return NewPipeline(PipelineDeps{
		Source:   source,
		Tracking: tracking,
		Notifier: notifier,
		Channel:  "C123",
		Logger:   discardLogger(),
	})
}

func TestPipelinePostsAndTracks(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	source := &fakeSource{items: map[string][]domain.Item{
		"f1": {
			{ID: "i1", FeedID: "f1", FeedName: "One", Title: "security release", PublishedAt: now.Add(-time.Hour)},
		},
	}}
	tracking := &memTracking{}
	notifier := &fakeNotifier{}

	pipeline := newTestPipeline(source, tracking, notifier)
	registry := testRegistry(10, domain.Feed{ID: "f1", Name: "One", URL: "http://x", Enabled: true, Keywords: []string{"security"}})

	if err := pipeline.Run(context.Background(), registry); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(notifier.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(notifier.messages))
	}
	if notifier.channels[0] != "C123" {
		t.Fatalf("unexpected channel %s", notifier.channels[0])
	}
	if !strings.Contains(notifier.messages[0].Text, "security release") {
		t.Fatalf("message missing title: %q", notifier.messages[0].Text)
	}

	got := tracking.tracking
	if len(got.PostedItems) != 1 || got.PostedItems[0] != "i1" {
		t.Fatalf("tracking not updated: %+v", got.PostedItems)
	}
	if got.Stats.LastRunPosted != 1 || got.Stats.TotalItemsPosted != 1 {
		t.Fatalf("stats not updated: %+v", got.Stats)
	}
	if state, ok := got.Feeds["f1"]; !ok || state.ErrorCount != 0 || state.LastCheckedAt.IsZero() {
		t.Fatalf("feed state not recorded: %+v", got.Feeds)
	}
}

func TestPipelineFeedFailureDoesNotAbortOthers(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	source := &fakeSource{
		items: map[string][]domain.Item{
			"ok": {{ID: "good", FeedID: "ok", Title: "fine", PublishedAt: now}},
		},
		errs: map[string]error{
			"down": &domain.FetchError{FeedID: "down", URL: "http://down", Err: errors.New("connection refused")},
		},
	}
	tracking := &memTracking{}
	notifier := &fakeNotifier{}

	pipeline := newTestPipeline(source, tracking, notifier)
	registry := testRegistry(10,
		domain.Feed{ID: "down", Name: "Down", URL: "http://down", Enabled: true},
		domain.Feed{ID: "ok", Name: "OK", URL: "http://ok", Enabled: true},
	)

	if err := pipeline.Run(context.Background(), registry); err != nil {
		t.Fatalf("run should tolerate feed failure: %v", err)
	}

	if len(notifier.messages) != 1 {
		t.Fatalf("healthy feed's item not delivered")
	}
	if tracking.tracking.Feeds["down"].ErrorCount != 1 {
		t.Fatalf("failed feed's error count not incremented: %+v", tracking.tracking.Feeds)
	}
}

func TestPipelineIdempotentAcrossRuns(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	source := &fakeSource{items: map[string][]domain.Item{
		"f1": {{ID: "i1", FeedID: "f1", Title: "same item", PublishedAt: now}},
	}}
	tracking := &memTracking{}
	notifier := &fakeNotifier{}

	pipeline := newTestPipeline(source, tracking, notifier)
	registry := testRegistry(10, domain.Feed{ID: "f1", Name: "One", URL: "http://x", Enabled: true})

	for run := 0; run < 2; run++ {
		if err := pipeline.Run(context.Background(), registry); err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
	}

	if len(notifier.messages) != 1 {
		t.Fatalf("second run must not repost, got %d messages", len(notifier.messages))
	}
	if len(tracking.tracking.PostedItems) != 1 {
		t.Fatalf("delivery record changed on no-op run: %+v", tracking.tracking.PostedItems)
	}
	if tracking.tracking.Stats.LastRunPosted != 0 {
		t.Fatalf("second run posted count should be 0, got %d", tracking.tracking.Stats.LastRunPosted)
	}
}

func TestPipelineCapsAtMaxPostsByRank(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	source := &fakeSource{items: map[string][]domain.Item{
		"f1": {
			{ID: "best", FeedID: "f1", Title: "alpha beta", PublishedAt: now.Add(-time.Hour)},
			{ID: "second", FeedID: "f1", Title: "alpha beta", PublishedAt: now.Add(-2 * time.Hour)},
			{ID: "third", FeedID: "f1", Title: "alpha only here", PublishedAt: now},
		},
	}}
	tracking := &memTracking{}
	notifier := &fakeNotifier{}

	pipeline := newTestPipeline(source, tracking, notifier)
	registry := testRegistry(2, domain.Feed{
		ID: "f1", Name: "One", URL: "http://x", Enabled: true,
		Keywords: []string{"alpha", "beta"},
	})

	if err := pipeline.Run(context.Background(), registry); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(notifier.messages) != 2 {
		t.Fatalf("cap not enforced, got %d messages", len(notifier.messages))
	}
	posted := tracking.tracking.PostedSet()
	if _, ok := posted["best"]; !ok {
		t.Fatalf("top-ranked item missing from delivery record")
	}
	if _, ok := posted["second"]; !ok {
		t.Fatalf("second-ranked item missing from delivery record")
	}
	if _, ok := posted["third"]; ok {
		t.Fatalf("lower-scored item delivered despite cap")
	}
}

func TestPipelineDeliveryFailureRetriedNextRun(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	source := &fakeSource{items: map[string][]domain.Item{
		"f1": {{ID: "flaky", FeedID: "f1", Title: "flaky item", PublishedAt: now}},
	}}
	tracking := &memTracking{}
	notifier := &fakeNotifier{failTexts: []string{"flaky item"}}

	pipeline := newTestPipeline(source, tracking, notifier)
	registry := testRegistry(10, domain.Feed{ID: "f1", Name: "One", URL: "http://x", Enabled: true})

	if err := pipeline.Run(context.Background(), registry); err != nil {
		t.Fatalf("delivery failure must not abort the run: %v", err)
	}
	if len(tracking.tracking.PostedItems) != 0 {
		t.Fatalf("failed delivery must stay out of the record: %+v", tracking.tracking.PostedItems)
	}

	// Next run: delivery succeeds and the item is posted exactly once.
	notifier.failTexts = nil
	if err := pipeline.Run(context.Background(), registry); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(notifier.messages) != 1 || len(tracking.tracking.PostedItems) != 1 {
		t.Fatalf("item not retried on next run")
	}
}
