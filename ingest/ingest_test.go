package ingest_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/landitus/bookmarks"
	"github.com/landitus/bookmarks/ingest"
	"github.com/landitus/bookmarks/mock"
	"github.com/landitus/bookmarks/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<html><head><title>Go Concurrency</title></head><body><article><p>Goroutines and channels.</p></article></body></html>`

var longText = strings.Repeat("goroutines channels select ", 20)

// newTestIngester returns an Ingester backed by in-memory SQLite with
// collaborators that succeed. Tests override fields as needed.
func newTestIngester(t *testing.T) *ingest.Ingester {
	t.Helper()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })

	return &ingest.Ingester{
		Items:       sqlite.NewItemService(db),
		Topics:      sqlite.NewTopicService(db),
		Fetcher:     htmlFetcher(testPage, nil),
		Scraper:     staticScraper(&bookmarks.Metadata{Title: "Go Concurrency", Description: "Patterns", Type: "article"}),
		Extractor:   staticExtractor(&bookmarks.ExtractResult{Title: "Go Concurrency", ContentHTML: "<p>" + longText + "</p>", TextContent: longText, Excerpt: "Goroutines"}),
		Converter:   &mock.Converter{ConvertFn: func(html string) (string, error) { return strings.TrimSuffix(strings.TrimPrefix(html, "<p>"), "</p>"), nil }},
		RetryDelays: []time.Duration{0},
	}
}

func htmlFetcher(body string, calls *atomic.Int32) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (*bookmarks.Response, error) {
			if calls != nil {
				calls.Add(1)
			}
			return &bookmarks.Response{URL: url, ContentType: "text/html; charset=utf-8", Body: body}, nil
		},
	}
}

func staticScraper(meta *bookmarks.Metadata) *mock.MetadataScraper {
	return &mock.MetadataScraper{
		ScrapeFn: func(_, _ string) (*bookmarks.Metadata, error) {
			m := *meta
			return &m, nil
		},
	}
}

func staticExtractor(result *bookmarks.ExtractResult) *mock.Extractor {
	return &mock.Extractor{
		ExtractFn: func(_, _ string) (*bookmarks.ExtractResult, error) {
			r := *result
			return &r, nil
		},
	}
}

func staticEnricher(enrichment *bookmarks.Enrichment, calls *atomic.Int32) *mock.Enricher {
	return &mock.Enricher{
		EnrichFn: func(_ context.Context, _ bookmarks.EnrichRequest) (*bookmarks.Enrichment, error) {
			if calls != nil {
				calls.Add(1)
			}
			e := *enrichment
			return &e, nil
		},
	}
}

// memorySnapshots is an in-memory SnapshotStore for tests.
type memorySnapshots struct {
	mu    sync.Mutex
	snaps map[string]*bookmarks.Snapshot
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{snaps: make(map[string]*bookmarks.Snapshot)}
}

func (m *memorySnapshots) SaveSnapshot(_ context.Context, snap *bookmarks.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *snap
	m.snaps[snap.ItemID+"/"+string(snap.Kind)] = &s
	return nil
}

func (m *memorySnapshots) FindSnapshot(_ context.Context, itemID string, kind bookmarks.SnapshotKind) (*bookmarks.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snaps[itemID+"/"+string(kind)]
	if !ok {
		return nil, bookmarks.Errorf(bookmarks.ENOTFOUND, "snapshot not found")
	}
	return s, nil
}

func (m *memorySnapshots) DeleteSnapshots(_ context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.snaps {
		if strings.HasPrefix(key, itemID+"/") {
			delete(m.snaps, key)
		}
	}
	return nil
}

func TestIngester_Save(t *testing.T) {
	t.Parallel()

	t.Run("normalizes URL, scrapes metadata and processes inline", func(t *testing.T) {
		t.Parallel()

		g := newTestIngester(t)
		g.Enricher = staticEnricher(&bookmarks.Enrichment{
			Type:    bookmarks.TypeArticle,
			Summary: "How goroutines communicate.",
			Topics:  []string{"Go", "Concurrency"},
		}, nil)

		item, created, err := g.Save(context.Background(), "user-1", "Example.com/post/?utm_source=x#top", ingest.SaveOptions{})

		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "https://example.com/post", item.URL)
		assert.Equal(t, "Go Concurrency", item.Title)
		assert.Equal(t, "Patterns", item.Description)
		assert.Equal(t, bookmarks.TypeArticle, item.Type)
		assert.Equal(t, bookmarks.StatusInbox, item.Status)
		assert.Equal(t, bookmarks.ProcessingCompleted, item.ProcessingStatus)
		assert.Equal(t, "How goroutines communicate.", item.Summary)
		assert.Equal(t, []string{"Go", "Concurrency"}, item.Topics)
		assert.Equal(t, 60, item.WordCount)
		assert.Equal(t, 1, item.ReadingTime)
		assert.NotEmpty(t, item.ContentHash)
		assert.NotNil(t, item.ProcessedAt)
		assert.Empty(t, item.ProcessingError)
	})

	t.Run("places item in requested status", func(t *testing.T) {
		t.Parallel()

		g := newTestIngester(t)

		item, _, err := g.Save(context.Background(), "user-1", "https://example.com", ingest.SaveOptions{Status: bookmarks.StatusQueue})

		require.NoError(t, err)
		assert.Equal(t, bookmarks.StatusQueue, item.Status)
	})

	t.Run("returns EUNAUTHORIZED without a user", func(t *testing.T) {
		t.Parallel()

		g := newTestIngester(t)

		_, _, err := g.Save(context.Background(), "", "https://example.com", ingest.SaveOptions{})

		assert.Equal(t, bookmarks.EUNAUTHORIZED, bookmarks.ErrorCode(err))
	})

	t.Run("returns EINVALID for unsupported URL", func(t *testing.T) {
		t.Parallel()

		g := newTestIngester(t)

		_, _, err := g.Save(context.Background(), "user-1", "ftp://example.com/file", ingest.SaveOptions{})

		assert.Equal(t, bookmarks.EINVALID, bookmarks.ErrorCode(err))
	})

	t.Run("returns EINVALID for unknown status", func(t *testing.T) {
		t.Parallel()

		g := newTestIngester(t)

		_, _, err := g.Save(context.Background(), "user-1", "https://example.com", ingest.SaveOptions{Status: "later"})

		assert.Equal(t, bookmarks.EINVALID, bookmarks.ErrorCode(err))
	})

	t.Run("moves existing item instead of refetching", func(t *testing.T) {
		t.Parallel()

		var fetches atomic.Int32
		g := newTestIngester(t)
		g.Fetcher = htmlFetcher(testPage, &fetches)
		ctx := context.Background()

		first, created, err := g.Save(ctx, "user-1", "https://example.com/post", ingest.SaveOptions{})
		require.NoError(t, err)
		require.True(t, created)

		second, created, err := g.Save(ctx, "user-1", "https://example.com/post/", ingest.SaveOptions{Status: bookmarks.StatusQueue})

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, bookmarks.StatusQueue, second.Status)
		assert.Equal(t, int32(1), fetches.Load())
	})

	t.Run("existing item defaults back to inbox", func(t *testing.T) {
		t.Parallel()

		g := newTestIngester(t)
		ctx := context.Background()

		_, _, err := g.Save(ctx, "user-1", "https://example.com/post", ingest.SaveOptions{Status: bookmarks.StatusArchive})
		require.NoError(t, err)

		item, created, err := g.Save(ctx, "user-1", "https://example.com/post", ingest.SaveOptions{})

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, bookmarks.StatusInbox, item.Status)
	})

	t.Run("same URL for different users creates separate items", func(t *testing.T) {
		t.Parallel()

		g := newTestIngester(t)
		ctx := context.Background()

		a, _, err := g.Save(ctx, "user-1", "https://example.com/post", ingest.SaveOptions{})
		require.NoError(t, err)
		b, created, err := g.Save(ctx, "user-2", "https://example.com/post", ingest.SaveOptions{})

		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("stores failed item when fetch fails", func(t *testing.T) {
		t.Parallel()

		g := newTestIngester(t)
		g.Fetcher = &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) (*bookmarks.Response, error) {
				return nil, errors.New("HTTP 404 for https://youtube.com/watch?v=abc")
			},
		}
		g.Extractor = &mock.Extractor{
			ExtractFn: func(_, _ string) (*bookmarks.ExtractResult, error) {
				t.Fatal("extractor must not run when fetch fails")
				return nil, nil
			},
		}

		item, created, err := g.Save(context.Background(), "user-1", "https://youtube.com/watch?v=abc", ingest.SaveOptions{})

		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, bookmarks.ProcessingFailed, item.ProcessingStatus)
		assert.Contains(t, item.ProcessingError, "HTTP 404")
		assert.Equal(t, bookmarks.TypeVideo, item.Type)
		assert.Equal(t, "youtube.com/watch", item.Title)
	})

	t.Run("detects type from content type of non-HTML response", func(t *testing.T) {
		t.Parallel()

		g := newTestIngester(t)
		g.Fetcher = &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (*bookmarks.Response, error) {
				return &bookmarks.Response{URL: url, ContentType: "application/pdf"}, nil
			},
		}

		item, _, err := g.Save(context.Background(), "user-1", "https://example.com/download?id=7", ingest.SaveOptions{})

		require.NoError(t, err)
		assert.Equal(t, bookmarks.TypePDF, item.Type)
		assert.Equal(t, bookmarks.ProcessingCompleted, item.ProcessingStatus)
		assert.Empty(t, item.Content)
	})

	t.Run("stores raw HTML snapshot", func(t *testing.T) {
		t.Parallel()

		snaps := newMemorySnapshots()
		g := newTestIngester(t)
		g.Snapshots = snaps
		ctx := context.Background()

		item, _, err := g.Save(ctx, "user-1", "https://example.com/post", ingest.SaveOptions{})
		require.NoError(t, err)

		html, err := snaps.FindSnapshot(ctx, item.ID, bookmarks.SnapshotHTML)
		require.NoError(t, err)
		assert.Equal(t, testPage, html.Body)

		md, err := snaps.FindSnapshot(ctx, item.ID, bookmarks.SnapshotMarkdown)
		require.NoError(t, err)
		assert.Equal(t, item.Content, md.Body)
	})

	t.Run("enqueues job when a queue is configured", func(t *testing.T) {
		t.Parallel()

		var jobs []bookmarks.Job
		g := newTestIngester(t)
		g.Queue = &mock.JobQueue{
			EnqueueFn: func(_ context.Context, job bookmarks.Job) error {
				jobs = append(jobs, job)
				return nil
			},
		}

		item, _, err := g.Save(context.Background(), "user-1", "https://example.com/post", ingest.SaveOptions{})

		require.NoError(t, err)
		assert.Equal(t, bookmarks.ProcessingPending, item.ProcessingStatus)
		require.Len(t, jobs, 1)
		assert.Equal(t, bookmarks.Job{ItemID: item.ID}, jobs[0])
	})

	t.Run("waits on rate limiter per host", func(t *testing.T) {
		t.Parallel()

		var domains []string
		g := newTestIngester(t)
		g.RateLimiter = &mock.DomainLimiter{
			WaitFn: func(_ context.Context, domain string) error {
				domains = append(domains, domain)
				return nil
			},
		}

		_, _, err := g.Save(context.Background(), "user-1", "https://www.example.com/post", ingest.SaveOptions{})

		require.NoError(t, err)
		require.NotEmpty(t, domains)
		assert.Equal(t, "example.com", domains[0])
	})
}

func TestIngester_Delete(t *testing.T) {
	t.Parallel()

	t.Run("removes item and snapshots", func(t *testing.T) {
		t.Parallel()

		snaps := newMemorySnapshots()
		g := newTestIngester(t)
		g.Snapshots = snaps
		ctx := context.Background()

		item, _, err := g.Save(ctx, "user-1", "https://example.com/post", ingest.SaveOptions{})
		require.NoError(t, err)

		require.NoError(t, g.Delete(ctx, "user-1", item.ID))

		_, err = g.Items.FindItemByID(ctx, item.ID)
		assert.Equal(t, bookmarks.ENOTFOUND, bookmarks.ErrorCode(err))
		_, err = snaps.FindSnapshot(ctx, item.ID, bookmarks.SnapshotHTML)
		assert.Equal(t, bookmarks.ENOTFOUND, bookmarks.ErrorCode(err))
	})

	t.Run("returns ENOTFOUND for another user's item", func(t *testing.T) {
		t.Parallel()

		g := newTestIngester(t)
		ctx := context.Background()

		item, _, err := g.Save(ctx, "user-1", "https://example.com/post", ingest.SaveOptions{})
		require.NoError(t, err)

		err = g.Delete(ctx, "user-2", item.ID)

		assert.Equal(t, bookmarks.ENOTFOUND, bookmarks.ErrorCode(err))
		_, err = g.Items.FindItemByID(ctx, item.ID)
		assert.NoError(t, err)
	})
}
