package main_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/landitus/bookmarks"
	main "github.com/landitus/bookmarks/cmd/bookmarks"
	"github.com/landitus/bookmarks/etree"
	"github.com/landitus/bookmarks/ingest"
	"github.com/landitus/bookmarks/mock"
	"github.com/landitus/bookmarks/sqlite"
	"github.com/stretchr/testify/require"
)

const testPage = `<html><head><title>Go Concurrency</title></head><body><article><p>Goroutines and channels.</p></article></body></html>`

var longText = strings.Repeat("goroutines channels select ", 20)

// testDeps returns dependencies backed by in-memory SQLite and an ingester
// whose fetches always return testPage.
func testDeps(t *testing.T) (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })

	items := sqlite.NewItemService(db)
	topics := sqlite.NewTopicService(db)

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	deps := &main.Dependencies{
		Ctx:     context.Background(),
		Stdout:  stdout,
		Stderr:  stderr,
		Items:   items,
		Topics:  topics,
		APIKeys: sqlite.NewAPIKeyService(db),
		Ingester: &ingest.Ingester{
			Items:  items,
			Topics: topics,
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (*bookmarks.Response, error) {
					return &bookmarks.Response{URL: url, ContentType: "text/html", Body: testPage}, nil
				},
			},
			Scraper: &mock.MetadataScraper{
				ScrapeFn: func(_, _ string) (*bookmarks.Metadata, error) {
					return &bookmarks.Metadata{Title: "Go Concurrency", Type: "article"}, nil
				},
			},
			Extractor: &mock.Extractor{
				ExtractFn: func(_, _ string) (*bookmarks.ExtractResult, error) {
					return &bookmarks.ExtractResult{Title: "Go Concurrency", ContentHTML: "<p>" + longText + "</p>", TextContent: longText}, nil
				},
			},
			Converter: &mock.Converter{
				ConvertFn: func(html string) (string, error) {
					return strings.TrimSuffix(strings.TrimPrefix(html, "<p>"), "</p>"), nil
				},
			},
			RetryDelays: []time.Duration{0},
		},
		FeedWriter: etree.NewFeedWriter(),
	}
	return deps, stdout, stderr
}

// saveItem saves rawURL for userID through the ingester and returns the item.
func saveItem(t *testing.T, deps *main.Dependencies, userID, rawURL string) *bookmarks.Item {
	t.Helper()
	item, _, err := deps.Ingester.Save(deps.Ctx, userID, rawURL, ingest.SaveOptions{})
	require.NoError(t, err)
	return item
}

// slowFetcher returns testPage after delay.
func slowFetcher(delay time.Duration) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (*bookmarks.Response, error) {
			time.Sleep(delay)
			return &bookmarks.Response{URL: url, ContentType: "text/html", Body: testPage}, nil
		},
	}
}

func user(id string) main.UserFlag {
	return main.UserFlag{User: id}
}
