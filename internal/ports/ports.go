package ports

import (
	"context"

	"FeedConsolidator/internal/domain"
)

// FeedSource pulls and normalizes entries from one configured feed.
type FeedSource interface {
	Fetch(ctx context.Context, feed domain.Feed) ([]domain.Item, error)
}

// TrackingStore persists the auto-publish delivery record. It is read once at
// the start of a run and rewritten once at the end.
type TrackingStore interface {
	LoadTracking(ctx context.Context) (domain.Tracking, error)
	SaveTracking(ctx context.Context, tracking domain.Tracking) error
	Close() error
}

// ReviewStore persists the curated-mode state files shared with the review UI.
type ReviewStore interface {
	LoadArticles(ctx context.Context) (domain.ArticleSet, error)
	SaveArticles(ctx context.Context, set domain.ArticleSet) error
	LoadPublished(ctx context.Context) (domain.Published, error)
	SavePublished(ctx context.Context, published domain.Published) error
	LoadReviewSettings(ctx context.Context) (domain.ReviewSettings, error)
	SaveReviewSettings(ctx context.Context, settings domain.ReviewSettings) error
}

// Message is one outbound chat-platform payload.
type Message struct {
	Text   string
	Blocks []Block
}

// Block is a single rich-layout element of a message.
type Block struct {
	Type     string
	Markdown string
	Buttons  []Button
}

// Button is an action element linking out of the chat platform.
type Button struct {
	Label string
	URL   string
	Style string
}

// Notifier delivers messages to the chat platform. The returned timestamp
// identifies the delivered message for threading and history.
type Notifier interface {
	PostMessage(ctx context.Context, channel string, msg Message) (string, error)
}
