package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"FeedConsolidator/internal/domain"
	"FeedConsolidator/internal/ports"
)

// maxEntriesPerFeed bounds how deep into a feed one run looks. Feeds are
// polled often enough that anything older has been seen already.
const maxEntriesPerFeed = 20

// GofeedSource fetches and normalizes RSS/Atom feeds via gofeed.
type GofeedSource struct {
	parser *gofeed.Parser
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.FeedSource = (*GofeedSource)(nil)

// NewGofeedSource wires an HTTP client and user agent into the parser. A nil
// client gets a 20-second timeout default.
func NewGofeedSource(client *http.Client, userAgent string, logger *slog.Logger) *GofeedSource {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	parser := gofeed.NewParser()
	parser.Client = client
	if userAgent != "" {
		parser.UserAgent = userAgent
	}
	return &GofeedSource{parser: parser, logger: logger, now: time.Now}
}

// Fetch retrieves one feed and returns its most recent entries as normalized
// items. Any failure is wrapped as a FetchError for the caller to catch
// per-feed.
func (s *GofeedSource) Fetch(ctx context.Context, feed domain.Feed) ([]domain.Item, error) {
	parsed, err := s.parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return nil, &domain.FetchError{FeedID: feed.ID, URL: feed.URL, Err: err}
	}

	count := len(parsed.Items)
	if count > maxEntriesPerFeed {
		count = maxEntriesPerFeed
	}

	fetchedAt := s.now().UTC()
	items := make([]domain.Item, 0, count)
	for _, entry := range parsed.Items[:count] {
		item, ok := s.normalize(entry, feed, fetchedAt)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	s.debug("feed fetched", "feed", feed.ID, "entries", len(parsed.Items), "items", len(items))
	return items, nil
}

func (s *GofeedSource) normalize(entry *gofeed.Item, feed domain.Feed, fetchedAt time.Time) (domain.Item, bool) {
	id := domain.ItemID(entry.GUID, entry.Link)
	if id == "" {
		return domain.Item{}, false
	}

	publishedAt := fetchedAt
	switch {
	case entry.PublishedParsed != nil:
		publishedAt = entry.PublishedParsed.UTC()
	case entry.UpdatedParsed != nil:
		publishedAt = entry.UpdatedParsed.UTC()
	}

	summary := entry.Description
	if summary == "" {
		summary = entry.Content
	}

	return domain.Item{
		ID:          id,
		FeedID:      feed.ID,
		FeedName:    feed.Name,
		FeedURL:     feedOrigin(feed.URL),
		Title:       entry.Title,
		Link:        entry.Link,
		Summary:     CleanSummary(summary),
		PublishedAt: publishedAt,
		FetchedAt:   fetchedAt,
	}, true
}

// feedOrigin reduces the feed URL to its scheme+host for display.
func feedOrigin(feedURL string) string {
	parsed, err := url.Parse(feedURL)
	if err != nil || parsed.Host == "" {
		return feedURL
	}
	return fmt.Sprintf("https://%s", parsed.Host)
}

func (s *GofeedSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
