package mock

import (
	"context"
	"io"

	"github.com/landitus/bookmarks"
)

var _ bookmarks.FeedReader = (*FeedReader)(nil)

// FeedReader is a mock implementation of bookmarks.FeedReader.
type FeedReader struct {
	ReadFeedFn func(ctx context.Context, feedURL string) ([]bookmarks.FeedEntry, error)
}

func (r *FeedReader) ReadFeed(ctx context.Context, feedURL string) ([]bookmarks.FeedEntry, error) {
	return r.ReadFeedFn(ctx, feedURL)
}

var _ bookmarks.FeedWriter = (*FeedWriter)(nil)

// FeedWriter is a mock implementation of bookmarks.FeedWriter.
type FeedWriter struct {
	WriteFeedFn func(w io.Writer, feed *bookmarks.Feed) error
}

func (fw *FeedWriter) WriteFeed(w io.Writer, feed *bookmarks.Feed) error {
	return fw.WriteFeedFn(w, feed)
}
