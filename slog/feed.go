package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/landitus/bookmarks"
)

// Ensure LoggingFeedReader implements bookmarks.FeedReader.
var _ bookmarks.FeedReader = (*LoggingFeedReader)(nil)

// LoggingFeedReader wraps a FeedReader with logging.
type LoggingFeedReader struct {
	next   bookmarks.FeedReader
	logger *slog.Logger
}

// NewLoggingFeedReader creates a new LoggingFeedReader.
func NewLoggingFeedReader(next bookmarks.FeedReader, logger *slog.Logger) *LoggingFeedReader {
	return &LoggingFeedReader{next: next, logger: logger}
}

// ReadFeed delegates to the wrapped reader and logs the operation.
func (r *LoggingFeedReader) ReadFeed(ctx context.Context, feedURL string) (entries []bookmarks.FeedEntry, err error) {
	defer func(begin time.Time) {
		r.logger.Info("feed read",
			"url", feedURL,
			"count", len(entries),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.ReadFeed(ctx, feedURL)
}
