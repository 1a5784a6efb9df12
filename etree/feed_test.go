package etree_test

import (
	"bytes"
	"testing"
	"time"

	beevik "github.com/beevik/etree"
	"github.com/landitus/bookmarks"
	"github.com/landitus/bookmarks/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedWriter_WriteFeed(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	published := time.Date(2026, 2, 20, 18, 30, 0, 0, time.UTC)

	feed := &bookmarks.Feed{
		Title:       "Reading queue",
		Link:        "https://bookmarks.example.com/",
		Description: "Items in queue",
		Items: []*bookmarks.Item{
			{
				ID:          "item-1",
				URL:         "https://example.com/post",
				Title:       "Post & Notes",
				Summary:     "A summary.",
				Description: "A description.",
				Author:      "Ada",
				Topics:      []string{"go", "databases"},
				PublishedAt: &published,
				CreatedAt:   created,
				UpdatedAt:   created.Add(time.Hour),
			},
			{
				ID:        "item-2",
				URL:       "https://example.org/docs/intro/",
				CreatedAt: created,
				UpdatedAt: created,
			},
		},
	}

	parse := func(t *testing.T) *beevik.Document {
		t.Helper()
		var buf bytes.Buffer
		require.NoError(t, etree.NewFeedWriter().WriteFeed(&buf, feed))
		doc := beevik.NewDocument()
		require.NoError(t, doc.ReadFromBytes(buf.Bytes()))
		return doc
	}

	t.Run("writes channel header", func(t *testing.T) {
		t.Parallel()

		doc := parse(t)
		rss := doc.SelectElement("rss")
		require.NotNil(t, rss)
		assert.Equal(t, "2.0", rss.SelectAttrValue("version", ""))

		channel := rss.SelectElement("channel")
		require.NotNil(t, channel)
		assert.Equal(t, "Reading queue", channel.SelectElement("title").Text())
		assert.Equal(t, "https://bookmarks.example.com/", channel.SelectElement("link").Text())
		assert.Equal(t, "Items in queue", channel.SelectElement("description").Text())
		assert.Equal(t, "Sun, 01 Mar 2026 10:00:00 +0000", channel.SelectElement("lastBuildDate").Text())
	})

	t.Run("writes one item per bookmark", func(t *testing.T) {
		t.Parallel()

		items := parse(t).FindElements("//channel/item")
		require.Len(t, items, 2)

		first := items[0]
		assert.Equal(t, "Post & Notes", first.SelectElement("title").Text())
		assert.Equal(t, "https://example.com/post", first.SelectElement("link").Text())
		assert.Equal(t, "item-1", first.SelectElement("guid").Text())
		assert.Equal(t, "false", first.SelectElement("guid").SelectAttrValue("isPermaLink", ""))
		assert.Equal(t, "A summary.", first.SelectElement("description").Text())
		assert.Equal(t, "Ada", first.SelectElement("author").Text())
		assert.Equal(t, "Fri, 20 Feb 2026 18:30:00 +0000", first.SelectElement("pubDate").Text())

		var topics []string
		for _, c := range first.SelectElements("category") {
			topics = append(topics, c.Text())
		}
		assert.Equal(t, []string{"go", "databases"}, topics)
	})

	t.Run("falls back to URL title and save time", func(t *testing.T) {
		t.Parallel()

		second := parse(t).FindElements("//channel/item")[1]
		assert.Equal(t, "example.org/docs/intro", second.SelectElement("title").Text())
		assert.Equal(t, "Sun, 01 Mar 2026 09:00:00 +0000", second.SelectElement("pubDate").Text())
		assert.Nil(t, second.SelectElement("description"))
		assert.Nil(t, second.SelectElement("category"))
	})

	t.Run("writes empty channel", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, etree.NewFeedWriter().WriteFeed(&buf, &bookmarks.Feed{Title: "Empty"}))
		assert.Contains(t, buf.String(), "<title>Empty</title>")
		assert.NotContains(t, buf.String(), "<item>")
		assert.NotContains(t, buf.String(), "lastBuildDate")
	})
}
