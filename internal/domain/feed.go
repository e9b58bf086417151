package domain

import (
	"context"
	"time"
)

// FeedItem is the read-side projection of a public activity, materialized by
// the feed worker from activity.logged events.
type FeedItem struct {
	ID           int64
	ActivityID   string
	OwnerID      string
	Title        string
	PrimaryValue string
	DurationMin  int
	OccurredOn   time.Time
	Notes        string
	CreatedAt    time.Time
}

// FeedRepository reads the materialized feed.
type FeedRepository interface {
	ListRecent(ctx context.Context, limit int) ([]FeedItem, error)
}
