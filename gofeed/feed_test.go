package gofeed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/landitus/bookmarks"
	"github.com/landitus/bookmarks/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example Blog</title>
  <link>https://example.com/</link>
  <item>
    <title>First Post</title>
    <link>https://example.com/first</link>
    <pubDate>Mon, 02 Mar 2026 10:00:00 +0000</pubDate>
  </item>
  <item>
    <title>No Link</title>
  </item>
  <item>
    <title> Second Post </title>
    <link> https://example.com/second </link>
  </item>
</channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Example Atom</title>
  <entry>
    <title>Atom Entry</title>
    <link href="https://example.com/atom-entry"/>
    <id>urn:uuid:1</id>
    <updated>2026-03-05T08:30:00Z</updated>
  </entry>
</feed>`

func serve(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestFeedReader_ReadFeed(t *testing.T) {
	t.Parallel()

	t.Run("reads RSS item links in order", func(t *testing.T) {
		t.Parallel()

		r := gofeed.NewFeedReader()
		entries, err := r.ReadFeed(context.Background(), serve(t, http.StatusOK, rssFeed))
		require.NoError(t, err)

		require.Len(t, entries, 2)
		assert.Equal(t, "https://example.com/first", entries[0].URL)
		assert.Equal(t, "First Post", entries[0].Title)
		require.NotNil(t, entries[0].PublishedAt)
		assert.True(t, entries[0].PublishedAt.Equal(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)))

		assert.Equal(t, "https://example.com/second", entries[1].URL)
		assert.Equal(t, "Second Post", entries[1].Title)
		assert.Nil(t, entries[1].PublishedAt)
	})

	t.Run("falls back to updated date for Atom entries", func(t *testing.T) {
		t.Parallel()

		r := gofeed.NewFeedReader()
		entries, err := r.ReadFeed(context.Background(), serve(t, http.StatusOK, atomFeed))
		require.NoError(t, err)

		require.Len(t, entries, 1)
		assert.Equal(t, "https://example.com/atom-entry", entries[0].URL)
		require.NotNil(t, entries[0].PublishedAt)
		assert.True(t, entries[0].PublishedAt.Equal(time.Date(2026, 3, 5, 8, 30, 0, 0, time.UTC)))
	})

	t.Run("returns EINVALID for HTTP errors", func(t *testing.T) {
		t.Parallel()

		r := gofeed.NewFeedReader()
		_, err := r.ReadFeed(context.Background(), serve(t, http.StatusNotFound, "gone"))
		assert.Equal(t, bookmarks.EINVALID, bookmarks.ErrorCode(err))
	})

	t.Run("returns EINVALID for non-feed content", func(t *testing.T) {
		t.Parallel()

		r := gofeed.NewFeedReader()
		_, err := r.ReadFeed(context.Background(), serve(t, http.StatusOK, "<html><body>hi</body></html>"))
		assert.Equal(t, bookmarks.EINVALID, bookmarks.ErrorCode(err))
	})

	t.Run("sends configured user agent", func(t *testing.T) {
		t.Parallel()

		var got string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Get("User-Agent")
			_, _ = w.Write([]byte(rssFeed))
		}))
		t.Cleanup(srv.Close)

		r := gofeed.NewFeedReader(gofeed.WithUserAgent("bookmarks-test"))
		_, err := r.ReadFeed(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "bookmarks-test", got)
	})
}
