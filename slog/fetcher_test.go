package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/landitus/bookmarks"
	"github.com/landitus/bookmarks/mock"
	bslog "github.com/landitus/bookmarks/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("logs fetch with bytes, content type and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*bookmarks.Response, error) {
				return &bookmarks.Response{URL: url, ContentType: "text/html", Body: "<html>content</html>"}, nil
			},
		}

		fetcher := bslog.NewLoggingFetcher(inner, logger)
		resp, err := fetcher.Fetch(context.Background(), "https://example.com/post")

		require.NoError(t, err)
		assert.Equal(t, "<html>content</html>", resp.Body)
		output := buf.String()
		assert.Contains(t, output, "msg=fetch")
		assert.Contains(t, output, "url=https://example.com/post")
		assert.Contains(t, output, "bytes=20")
		assert.Contains(t, output, "content_type=text/html")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*bookmarks.Response, error) {
				return nil, errors.New("network error")
			},
		}

		fetcher := bslog.NewLoggingFetcher(inner, logger)
		_, err := fetcher.Fetch(context.Background(), "https://example.com/post")

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "bytes=0")
		assert.Contains(t, output, "err=\"network error\"")
	})
}

func TestLoggingFetcher_Close(t *testing.T) {
	t.Parallel()

	closeCalled := false
	inner := &mock.Fetcher{
		CloseFn: func() error {
			closeCalled = true
			return nil
		},
	}

	fetcher := bslog.NewLoggingFetcher(inner, slog.New(slog.DiscardHandler))
	require.NoError(t, fetcher.Close())
	assert.True(t, closeCalled)
}
