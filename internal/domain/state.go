package domain

import "time"

const (
	// PostedItemsCap bounds the persisted delivered-id list; older ids are
	// dropped on save only, never mid-run.
	PostedItemsCap = 1000

	// HistoryCap bounds the curated publish history.
	HistoryCap = 30
)

// FeedRunState records the outcome of the most recent fetch attempts for one
// feed.
type FeedRunState struct {
	LastCheckedAt time.Time `json:"last_checked_at"`
	ErrorCount    int       `json:"error_count"`
}

// TrackingStats aggregates counters across runs.
type TrackingStats struct {
	TotalItemsPosted int       `json:"total_items_posted"`
	LastRunPosted    int       `json:"last_run_posted"`
	LastRunTime      time.Time `json:"last_run_time,omitzero"`
}

// Tracking is the auto-publish delivery record: the set of item ids already
// posted plus per-feed run state. Ids are append-only within a run.
type Tracking struct {
	PostedItems []string                `json:"posted_items"`
	LastCheck   time.Time               `json:"last_check,omitzero"`
	Stats       TrackingStats           `json:"stats"`
	Feeds       map[string]FeedRunState `json:"feeds,omitempty"`
}

// PostedSet builds a membership set over the delivered ids.
func (t Tracking) PostedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(t.PostedItems))
	for _, id := range t.PostedItems {
		set[id] = struct{}{}
	}
	return set
}

// MarkPosted appends an id unless it is already present.
func (t *Tracking) MarkPosted(id string) {
	for _, existing := range t.PostedItems {
		if existing == id {
			return
		}
	}
	t.PostedItems = append(t.PostedItems, id)
}

// RecordFeedCheck stamps the feed's last attempt and bumps the error counter
// when the attempt failed.
func (t *Tracking) RecordFeedCheck(feedID string, at time.Time, failed bool) {
	if t.Feeds == nil {
		t.Feeds = map[string]FeedRunState{}
	}
	state := t.Feeds[feedID]
	state.LastCheckedAt = at
	if failed {
		state.ErrorCount++
	}
	t.Feeds[feedID] = state
}

// Trim drops the oldest delivered ids beyond the retention cap.
func (t *Tracking) Trim() {
	if len(t.PostedItems) > PostedItemsCap {
		t.PostedItems = t.PostedItems[len(t.PostedItems)-PostedItemsCap:]
	}
}

// ArticleSet is the curated-mode article snapshot shared with the review UI.
type ArticleSet struct {
	Articles    []Item    `json:"articles"`
	LastUpdated time.Time `json:"last_updated,omitzero"`
}

// ByID indexes the snapshot by article id.
func (a ArticleSet) ByID() map[string]Item {
	index := make(map[string]Item, len(a.Articles))
	for _, article := range a.Articles {
		index[article.ID] = article
	}
	return index
}

// PublishRecord is one curated digest delivery.
type PublishRecord struct {
	Date         string    `json:"date"`
	ArticleIDs   []string  `json:"article_ids"`
	ArticleCount int       `json:"article_count"`
	SlackTS      string    `json:"slack_ts"`
	PublishedAt  time.Time `json:"published_at"`
}

// Published tracks curated-mode deliveries.
type Published struct {
	PublishedArticles []string        `json:"published_articles"`
	History           []PublishRecord `json:"history"`
}

// PublishedSet builds a membership set over published article ids.
func (p Published) PublishedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.PublishedArticles))
	for _, id := range p.PublishedArticles {
		set[id] = struct{}{}
	}
	return set
}

// Append records a delivery, deduplicates the id list, and trims history.
func (p *Published) Append(record PublishRecord) {
	seen := p.PublishedSet()
	for _, id := range record.ArticleIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		p.PublishedArticles = append(p.PublishedArticles, id)
	}
	p.History = append(p.History, record)
	if len(p.History) > HistoryCap {
		p.History = p.History[len(p.History)-HistoryCap:]
	}
}

// ReviewSettings configures the curated-publish and reminder surfaces.
type ReviewSettings struct {
	NewsChannelID    string `json:"news_channel_id"`
	SlackUserID      string `json:"slack_user_id"`
	ReminderTime     string `json:"reminder_time"`
	ReminderTimezone string `json:"reminder_timezone"`
	MessageTemplate  string `json:"message_template"`
	ReviewURL        string `json:"review_url,omitempty"`
}
