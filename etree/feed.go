// Package etree renders item feeds as RSS 2.0 documents.
package etree

import (
	"fmt"
	"io"
	"time"

	"github.com/beevik/etree"
	"github.com/landitus/bookmarks"
)

// Ensure FeedWriter implements bookmarks.FeedWriter at compile time.
var _ bookmarks.FeedWriter = (*FeedWriter)(nil)

// FeedWriter writes RSS 2.0.
type FeedWriter struct{}

// NewFeedWriter creates a FeedWriter.
func NewFeedWriter() *FeedWriter {
	return &FeedWriter{}
}

// WriteFeed writes feed as an indented RSS 2.0 document.
func (w *FeedWriter) WriteFeed(out io.Writer, feed *bookmarks.Feed) error {
	doc := Build(feed)
	doc.Indent(2)
	if _, err := doc.WriteTo(out); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	return nil
}

// Build returns the RSS document for feed.
func Build(feed *bookmarks.Feed) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	rss := doc.CreateElement("rss")
	rss.CreateAttr("version", "2.0")

	channel := rss.CreateElement("channel")
	channel.CreateElement("title").SetText(feed.Title)
	channel.CreateElement("link").SetText(feed.Link)
	channel.CreateElement("description").SetText(feed.Description)
	if latest := lastUpdated(feed.Items); !latest.IsZero() {
		channel.CreateElement("lastBuildDate").SetText(latest.Format(time.RFC1123Z))
	}

	for _, item := range feed.Items {
		writeItem(channel.CreateElement("item"), item)
	}
	return doc
}

func writeItem(el *etree.Element, item *bookmarks.Item) {
	el.CreateElement("title").SetText(item.DisplayTitle())
	el.CreateElement("link").SetText(item.URL)

	guid := el.CreateElement("guid")
	guid.CreateAttr("isPermaLink", "false")
	guid.SetText(item.ID)

	if desc := description(item); desc != "" {
		el.CreateElement("description").SetText(desc)
	}
	if item.Author != "" {
		el.CreateElement("author").SetText(item.Author)
	}

	pub := item.CreatedAt
	if item.PublishedAt != nil {
		pub = *item.PublishedAt
	}
	if !pub.IsZero() {
		el.CreateElement("pubDate").SetText(pub.UTC().Format(time.RFC1123Z))
	}

	for _, topic := range item.Topics {
		el.CreateElement("category").SetText(topic)
	}
}

// description prefers the AI summary over the page description.
func description(item *bookmarks.Item) string {
	switch {
	case item.Summary != "":
		return item.Summary
	case item.Description != "":
		return item.Description
	default:
		return item.Excerpt
	}
}

func lastUpdated(items []*bookmarks.Item) time.Time {
	var latest time.Time
	for _, item := range items {
		if item.UpdatedAt.After(latest) {
			latest = item.UpdatedAt
		}
	}
	return latest.UTC()
}
