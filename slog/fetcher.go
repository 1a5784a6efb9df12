// Package slog provides logging decorators for pipeline collaborators.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/landitus/bookmarks"
)

// Ensure LoggingFetcher implements bookmarks.Fetcher.
var _ bookmarks.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging.
type LoggingFetcher struct {
	next   bookmarks.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next bookmarks.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the result.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (resp *bookmarks.Response, err error) {
	defer func(begin time.Time) {
		var size int
		var contentType string
		if resp != nil {
			size = len(resp.Body)
			contentType = resp.ContentType
		}
		f.logger.Info("fetch",
			"url", url,
			"bytes", size,
			"content_type", contentType,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
