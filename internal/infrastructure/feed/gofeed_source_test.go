package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"FeedConsolidator/internal/domain"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Feed</title>
    <link>https://example.org</link>
    <item>
      <title>Security patch released</title>
      <link>https://example.org/security-patch</link>
      <guid>tag:example.org,2026:security-patch</guid>
      <description>&lt;p&gt;A &lt;b&gt;critical&lt;/b&gt; fix.&lt;/p&gt;</description>
      <pubDate>Tue, 10 Mar 2026 08:00:00 GMT</pubDate>
    </item>
    <item>
      <title>No GUID here</title>
      <link>https://example.org/no-guid</link>
      <description>Plain text summary</description>
    </item>
  </channel>
</rss>`

func TestGofeedSourceFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	source := NewGofeedSource(server.Client(), "FeedConsolidator/test", nil)
	feed := domain.Feed{ID: "example", Name: "Example", URL: server.URL, Enabled: true}

	items, err := source.Fetch(context.Background(), feed)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.ID != "tag:example.org,2026:security-patch" {
		t.Fatalf("guid should win as id, got %s", first.ID)
	}
	if first.FeedID != "example" || first.FeedName != "Example" {
		t.Fatalf("feed attribution missing: %+v", first)
	}
	if first.Summary != "A critical fix." {
		t.Fatalf("summary not cleaned: %q", first.Summary)
	}
	want := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(want) {
		t.Fatalf("unexpected published time: %v", first.PublishedAt)
	}

	second := items[1]
	if second.ID == "" || second.ID == second.Link {
		t.Fatalf("expected hashed id for guid-less entry, got %q", second.ID)
	}
	if len(second.ID) != 16 {
		t.Fatalf("hashed id should be 16 hex chars, got %q", second.ID)
	}
	if second.PublishedAt.IsZero() {
		t.Fatalf("undated entry should fall back to fetch time")
	}
}

func TestGofeedSourceFetchError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	source := NewGofeedSource(server.Client(), "", nil)
	feed := domain.Feed{ID: "broken", Name: "Broken", URL: server.URL, Enabled: true}

	_, err := source.Fetch(context.Background(), feed)
	if err == nil {
		t.Fatalf("expected fetch error")
	}
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %T: %v", err, err)
	}
	if fetchErr.FeedID != "broken" {
		t.Fatalf("fetch error missing feed id: %+v", fetchErr)
	}
}

func TestCleanSummary(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"tags stripped", "<p>hello <b>world</b></p>", "hello world"},
		{"whitespace collapsed", "  a\n\n b\tc ", "a b c"},
		{"empty", "   ", ""},
	}
	for _, tc := range cases {
		if got := CleanSummary(tc.in); got != tc.want {
			t.Fatalf("%s: want %q, got %q", tc.name, tc.want, got)
		}
	}

	long := strings.Repeat("é", 600)
	if got := CleanSummary(long); len([]rune(got)) != 500 {
		t.Fatalf("expected 500-rune cap, got %d", len([]rune(got)))
	}
}

func TestFeedOrigin(t *testing.T) {
	t.Parallel()

	if got := feedOrigin("https://blog.example.org/rss.xml"); got != "https://blog.example.org" {
		t.Fatalf("unexpected origin: %s", got)
	}
	if got := feedOrigin("not a url"); got != "not a url" {
		t.Fatalf("unparseable url should pass through, got %s", got)
	}
}
