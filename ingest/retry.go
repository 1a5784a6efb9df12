package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/landitus/bookmarks"
)

// FetchFunc fetches a single URL.
type FetchFunc func(ctx context.Context, url string) (*bookmarks.Response, error)

// DefaultRetryDelays returns the waits between fetch attempts: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// FetchWithRetry calls fetch once, then once more after each of delays while
// it keeps failing. A missing page (ENOTFOUND) is not retried. The error of
// the last attempt is returned.
func FetchWithRetry(ctx context.Context, url string, fetch FetchFunc, logger *slog.Logger, delays []time.Duration) (*bookmarks.Response, error) {
	resp, err := fetch(ctx, url)
	for i := 0; err != nil && i < len(delays); i++ {
		if bookmarks.ErrorCode(err) == bookmarks.ENOTFOUND {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if logger != nil {
			logger.Debug("retrying fetch", "url", url, "attempt", i+2, "wait", delays[i], "err", err)
		}

		timer := time.NewTimer(delays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		resp, err = fetch(ctx, url)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}
