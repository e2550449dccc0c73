package usecase

import (
	"sort"
	"strings"
	"time"

	"FeedConsolidator/internal/domain"
)

// Filter discards low-relevance, out-of-window, and already-delivered items.
type Filter struct {
	minScore float64
	lookback time.Duration
	now      func() time.Time
}

// NewFilter derives filter thresholds from the registry settings.
func NewFilter(settings domain.PipelineSettings) *Filter {
	return &Filter{
		minScore: settings.MinRelevanceScore,
		lookback: time.Duration(settings.HoursLookback) * time.Hour,
		now:      time.Now,
	}
}

// Relevance scores an item against a keyword list: the fraction of keywords
// found case-insensitively in title+summary. An empty keyword list means the
// feed accepts everything and scores 1.0. The result is always in [0,1].
func Relevance(item domain.Item, keywords []string) float64 {
	if len(keywords) == 0 {
		return 1.0
	}

	text := strings.ToLower(item.Title + " " + item.Summary)
	matches := 0
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		if strings.Contains(text, keyword) {
			matches++
		}
	}

	score := float64(matches) / float64(len(keywords))
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Apply scores the items and returns the survivors with their scores set.
// delivered is the persisted delivery record; seen is the current run's
// cross-feed accumulator and is extended with every survivor. The lookback
// window is a lower bound only: future-dated items are kept, since some feeds
// stamp entries ahead of UTC.
func (f *Filter) Apply(items []domain.Item, keywords []string, delivered, seen map[string]struct{}) []domain.Item {
	cutoff := f.now().UTC().Add(-f.lookback)

	survivors := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if item.PublishedAt.Before(cutoff) {
			continue
		}
		if _, ok := delivered[item.ID]; ok {
			continue
		}
		if seen != nil {
			if _, ok := seen[item.ID]; ok {
				continue
			}
		}

		score := Relevance(item, keywords)
		if score < f.minScore {
			continue
		}

		item.Score = score
		if seen != nil {
			seen[item.ID] = struct{}{}
		}
		survivors = append(survivors, item)
	}
	return survivors
}

// OrderCandidates sorts by relevance descending, ties broken by published
// timestamp descending.
func OrderCandidates(items []domain.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
}

// SelectTop caps an ordered candidate list at n.
func SelectTop(items []domain.Item, n int) []domain.Item {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}
