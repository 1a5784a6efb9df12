// Package gofeed reads RSS, Atom and JSON feeds with mmcdole/gofeed.
package gofeed

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/landitus/bookmarks"
	"github.com/mmcdole/gofeed"
)

// DefaultTimeout bounds a single feed download.
const DefaultTimeout = 30 * time.Second

// Ensure FeedReader implements bookmarks.FeedReader at compile time.
var _ bookmarks.FeedReader = (*FeedReader)(nil)

// FeedReader downloads a feed and returns its entry links.
type FeedReader struct {
	parser *gofeed.Parser
}

// Option configures a FeedReader.
type Option func(*FeedReader)

// WithHTTPClient sets the HTTP client used to download feeds.
func WithHTTPClient(c *http.Client) Option {
	return func(r *FeedReader) {
		r.parser.Client = c
	}
}

// WithUserAgent sets the User-Agent header sent with feed requests.
func WithUserAgent(ua string) Option {
	return func(r *FeedReader) {
		r.parser.UserAgent = ua
	}
}

// NewFeedReader creates a FeedReader.
func NewFeedReader(opts ...Option) *FeedReader {
	r := &FeedReader{parser: gofeed.NewParser()}
	r.parser.Client = &http.Client{Timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadFeed returns the entries of the feed at feedURL in feed order.
// Entries without a link are skipped.
func (r *FeedReader) ReadFeed(ctx context.Context, feedURL string) ([]bookmarks.FeedEntry, error) {
	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, bookmarks.Errorf(bookmarks.EINVALID, "feed returned %s", httpErr.Status)
		}
		if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
			return nil, bookmarks.Errorf(bookmarks.EINVALID, "not a feed: %s", feedURL)
		}
		return nil, err
	}
	return Entries(feed), nil
}

// Entries converts parsed feed items to entries.
func Entries(feed *gofeed.Feed) []bookmarks.FeedEntry {
	entries := make([]bookmarks.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" && len(item.Links) > 0 {
			link = strings.TrimSpace(item.Links[0])
		}
		if link == "" {
			continue
		}

		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}

		entries = append(entries, bookmarks.FeedEntry{
			URL:         link,
			Title:       strings.TrimSpace(item.Title),
			PublishedAt: published,
		})
	}
	return entries
}
