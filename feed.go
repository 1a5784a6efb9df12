package bookmarks

import (
	"context"
	"io"
	"time"
)

// FeedEntry is a link read from an RSS or Atom feed.
type FeedEntry struct {
	URL         string
	Title       string
	PublishedAt *time.Time
}

// FeedReader reads the entries of a syndication feed.
type FeedReader interface {
	ReadFeed(ctx context.Context, feedURL string) ([]FeedEntry, error)
}

// Feed is an outgoing feed of items.
type Feed struct {
	Title       string
	Link        string
	Description string
	Items       []*Item
}

// FeedWriter renders a feed of items.
type FeedWriter interface {
	WriteFeed(w io.Writer, feed *Feed) error
}
