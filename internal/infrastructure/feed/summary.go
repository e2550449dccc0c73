package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// summaryMaxRunes caps stored summaries; feeds routinely ship whole articles
// in the description element.
const summaryMaxRunes = 500

// CleanSummary strips markup from a feed entry's description and collapses
// whitespace. Input that is not parseable HTML is returned trimmed as-is.
func CleanSummary(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	text := raw
	if strings.Contains(raw, "<") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
		if err == nil {
			text = doc.Text()
		}
	}

	text = strings.Join(strings.Fields(text), " ")
	return truncateRunes(text, summaryMaxRunes)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
