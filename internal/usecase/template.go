package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"FeedConsolidator/internal/domain"
)

// digestSummaryMaxRunes caps the per-article summary inside a digest.
const digestSummaryMaxRunes = 200

// DefaultMessageTemplate is used when review settings carry no template.
const DefaultMessageTemplate = "{articles}"

// RenderDigest fills the message template's fixed placeholders: {articles} is
// the formatted article list, {feed_count} the number of distinct feeds, and
// {count} the number of articles. No other placeholders exist; unknown braces
// pass through untouched.
func RenderDigest(template string, articles []domain.Item) string {
	if template == "" {
		template = DefaultMessageTemplate
	}

	feeds := map[string]struct{}{}
	for _, article := range articles {
		feeds[article.FeedID] = struct{}{}
	}

	message := strings.ReplaceAll(template, "{articles}", formatArticleList(articles))
	message = strings.ReplaceAll(message, "{feed_count}", strconv.Itoa(len(feeds)))
	message = strings.ReplaceAll(message, "{count}", strconv.Itoa(len(articles)))
	return message
}

func formatArticleList(articles []domain.Item) string {
	blocks := make([]string, 0, len(articles))
	for _, article := range articles {
		var b strings.Builder
		fmt.Fprintf(&b, "• *<%s|%s>*\n", article.Link, article.Title)
		fmt.Fprintf(&b, "  _%s_ • %s\n", article.FeedName, article.PublishedAt.Format("Jan 02, 2006"))
		if summary := strings.TrimSpace(article.Summary); summary != "" {
			fmt.Fprintf(&b, "  %s\n", truncateWithEllipsis(summary, digestSummaryMaxRunes))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}
