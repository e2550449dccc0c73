package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Feed is a configured RSS/Atom source with its relevance keywords.
type Feed struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	Enabled  bool     `json:"enabled"`
	Keywords []string `json:"keywords,omitempty"`
}

// UnmarshalJSON treats a missing enabled flag as enabled, so hand-edited
// registry entries without the field are still polled.
func (f *Feed) UnmarshalJSON(data []byte) error {
	type alias Feed
	aux := alias{Enabled: true}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*f = Feed(aux)
	return nil
}

// PipelineSettings is the global settings section of the feed registry.
type PipelineSettings struct {
	MinRelevanceScore float64 `json:"min_relevance_score"`
	MaxPostsPerRun    int     `json:"max_posts_per_run"`
	HoursLookback     int     `json:"hours_lookback"`
}

// Registry is the full content of feeds.json.
type Registry struct {
	Feeds    []Feed           `json:"feeds"`
	Settings PipelineSettings `json:"settings"`
}

// EnabledFeeds filters the registry down to feeds that should be polled.
func (r Registry) EnabledFeeds() []Feed {
	enabled := make([]Feed, 0, len(r.Feeds))
	for _, feed := range r.Feeds {
		if feed.Enabled {
			enabled = append(enabled, feed)
		}
	}
	return enabled
}

// Item is one normalized entry parsed from a feed. It exists only for the
// duration of a run; only its ID is persisted.
type Item struct {
	ID          string    `json:"id"`
	FeedID      string    `json:"feed_id"`
	FeedName    string    `json:"feed_name"`
	FeedURL     string    `json:"feed_url,omitempty"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Summary     string    `json:"summary"`
	PublishedAt time.Time `json:"published"`
	FetchedAt   time.Time `json:"fetched"`
	Score       float64   `json:"relevance_score,omitempty"`
}

// ItemID derives a stable identifier from a feed entry: the GUID when the
// feed provides one, otherwise a short hash of the link.
func ItemID(guid, link string) string {
	if guid != "" {
		return guid
	}
	if link == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(link))
	return hex.EncodeToString(sum[:])[:16]
}
