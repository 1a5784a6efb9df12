// Package ingest turns submitted URLs into items. It fetches pages, scrapes
// their metadata, extracts readable content and enriches items with AI
// summaries and topics, either inline or through a job queue.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/landitus/bookmarks"
)

// Defaults for Ingester settings left at their zero value.
const (
	DefaultProcessTimeout   = 60 * time.Second
	DefaultMaxContentTokens = 30000
	DefaultPollInterval     = 250 * time.Millisecond
)

// Ingester saves URLs as items and processes their content.
//
// Items, Topics, Fetcher, Scraper, Extractor and Converter are required.
// The remaining collaborators are optional: a nil Enricher skips AI
// enrichment, a nil Queue processes items inline, a nil Snapshots store
// always refetches pages.
type Ingester struct {
	Items  bookmarks.ItemService
	Topics bookmarks.TopicService

	Fetcher        bookmarks.Fetcher
	BrowserFetcher bookmarks.Fetcher
	Scraper        bookmarks.MetadataScraper

	Extractor         bookmarks.Extractor
	FallbackExtractor bookmarks.Extractor
	Converter         bookmarks.Converter

	Enricher     bookmarks.Enricher
	TokenCounter bookmarks.TokenCounter
	Languages    bookmarks.LanguageDetector

	Snapshots   bookmarks.SnapshotStore
	Queue       bookmarks.JobQueue
	RateLimiter bookmarks.DomainLimiter

	Logger *slog.Logger

	RetryDelays      []time.Duration
	ProcessTimeout   time.Duration
	MaxContentTokens int

	// PollInterval is how often Reprocess checks a queued item.
	PollInterval time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// SaveOptions configures Save.
type SaveOptions struct {
	// Status is the bucket the item is placed in. Defaults to inbox.
	Status bookmarks.Status
}

// Save stores rawURL for userID. When the user already saved the URL, the
// existing item is moved to the requested status and returned with
// created set to false; it is not refetched.
//
// A failed fetch does not fail the save: the item is stored with a title
// derived from its URL and a failed processing status.
func (g *Ingester) Save(ctx context.Context, userID, rawURL string, opts SaveOptions) (*bookmarks.Item, bool, error) {
	if userID == "" {
		return nil, false, bookmarks.Errorf(bookmarks.EUNAUTHORIZED, "user required")
	}

	u, err := bookmarks.NormalizeURL(rawURL)
	if err != nil {
		return nil, false, err
	}

	status := opts.Status
	if status == "" {
		status = bookmarks.StatusInbox
	} else if !status.IsValid() {
		return nil, false, bookmarks.Errorf(bookmarks.EINVALID, "invalid status %q", status)
	}

	if existing, err := g.findByURL(ctx, userID, u); err != nil {
		return nil, false, err
	} else if existing != nil {
		item, err := g.moveExisting(ctx, existing, status)
		return item, false, err
	}

	item := &bookmarks.Item{
		UserID:           userID,
		URL:              u,
		Status:           status,
		ProcessingStatus: bookmarks.ProcessingPending,
		Topics:           []string{},
	}

	resp, err := g.fetch(ctx, g.Fetcher, u)
	if err != nil {
		g.logger().Warn("fetch failed", "url", u, "err", err)
		item.Type = bookmarks.DetectContentType(u, "", "")
		item.Title = item.DisplayTitle()
		item.ProcessingStatus = bookmarks.ProcessingFailed
		item.ProcessingError = err.Error()
	} else {
		g.applyResponse(item, resp)
	}

	if err := g.Items.CreateItem(ctx, item); err != nil {
		if bookmarks.ErrorCode(err) != bookmarks.ECONFLICT {
			return nil, false, err
		}
		// Saved concurrently by another request.
		existing, ferr := g.findByURL(ctx, userID, u)
		if ferr != nil || existing == nil {
			return nil, false, err
		}
		item, err := g.moveExisting(ctx, existing, status)
		return item, false, err
	}

	if resp != nil && resp.Body != "" {
		g.saveSnapshot(ctx, &bookmarks.Snapshot{
			ItemID: item.ID,
			Kind:   bookmarks.SnapshotHTML,
			URL:    resp.URL,
			Title:  item.Title,
			Body:   resp.Body,
		})
	}

	if item.ProcessingStatus != bookmarks.ProcessingPending {
		return item, true, nil
	}
	return g.schedule(ctx, item), true, nil
}

// Delete removes an item owned by userID together with its snapshots.
// Returns ENOTFOUND if the item does not exist or belongs to another user.
func (g *Ingester) Delete(ctx context.Context, userID, itemID string) error {
	if _, err := g.findOwned(ctx, userID, itemID); err != nil {
		return err
	}
	if err := g.Items.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	if g.Snapshots != nil {
		if err := g.Snapshots.DeleteSnapshots(ctx, itemID); err != nil {
			g.logger().Warn("delete snapshots failed", "item", itemID, "err", err)
		}
	}
	return nil
}

// Reprocess forces a fresh fetch, extraction and enrichment of an item owned
// by userID and waits up to wait for it to finish: done reports whether
// processing completed or failed in time, in which case the processed item
// is returned. Otherwise the pending item is returned and processing goes on
// in the background. A negative wait waits until processing finishes.
//
// With a queue configured the job is enqueued and the item is polled until
// a worker is done with it. Without a queue processing runs detached from
// ctx, bounded by ProcessTimeout.
func (g *Ingester) Reprocess(ctx context.Context, userID, itemID string, wait time.Duration) (*bookmarks.Item, bool, error) {
	if _, err := g.findOwned(ctx, userID, itemID); err != nil {
		return nil, false, err
	}

	pending := bookmarks.ProcessingPending
	empty := ""
	item, err := g.Items.UpdateItem(ctx, itemID, bookmarks.ItemUpdate{
		ProcessingStatus: &pending,
		ProcessingError:  &empty,
	})
	if err != nil {
		return nil, false, err
	}

	job := bookmarks.Job{ItemID: itemID, Force: true}
	if g.Queue != nil {
		if err := g.Queue.Enqueue(ctx, job); err != nil {
			return nil, false, err
		}
		return g.await(ctx, item, wait)
	}

	type result struct {
		item *bookmarks.Item
		err  error
	}
	done := make(chan result, 1)
	go func() {
		processed, err := g.Process(context.WithoutCancel(ctx), job)
		if err != nil {
			g.logger().Warn("reprocess failed", "item", itemID, "err", err)
		}
		done <- result{item: processed, err: err}
	}()

	if wait == 0 {
		return item, false, nil
	}
	var timeout <-chan time.Time
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case r := <-done:
		// A nil item means processing could not record its outcome.
		if r.item == nil {
			return nil, false, r.err
		}
		return r.item, true, nil
	case <-timeout:
		return item, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// await polls item until its processing completes or fails, wait elapses or
// ctx is done. A negative wait polls without a deadline.
func (g *Ingester) await(ctx context.Context, item *bookmarks.Item, wait time.Duration) (*bookmarks.Item, bool, error) {
	if wait == 0 {
		return item, false, nil
	}
	var timeout <-chan time.Time
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		timeout = timer.C
	}
	ticker := time.NewTicker(g.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			current, err := g.Items.FindItemByID(ctx, item.ID)
			if err != nil {
				return nil, false, err
			}
			switch current.ProcessingStatus {
			case bookmarks.ProcessingCompleted, bookmarks.ProcessingFailed:
				return current, true, nil
			}
			item = current
		case <-timeout:
			return item, false, nil
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

// Resume enqueues every item left pending or processing, for example by a
// shutdown with jobs still queued. It returns the number of jobs enqueued.
// A Processor must be consuming the queue, since Enqueue blocks while the
// queue is full.
func (g *Ingester) Resume(ctx context.Context) (int, error) {
	if g.Queue == nil {
		return 0, bookmarks.Errorf(bookmarks.EINVALID, "resume requires a job queue")
	}

	var ids []string
	for _, status := range []bookmarks.ProcessingStatus{bookmarks.ProcessingPending, bookmarks.ProcessingProcessing} {
		items, err := g.Items.FindItems(ctx, bookmarks.ItemFilter{ProcessingStatus: &status})
		if err != nil {
			return 0, err
		}
		for _, item := range items {
			ids = append(ids, item.ID)
		}
	}

	for i, id := range ids {
		if err := g.Queue.Enqueue(ctx, bookmarks.Job{ItemID: id}); err != nil {
			return i, err
		}
	}
	return len(ids), nil
}

// schedule hands a freshly created item to the queue, or processes it inline.
// The returned item reflects the latest known state.
func (g *Ingester) schedule(ctx context.Context, item *bookmarks.Item) *bookmarks.Item {
	job := bookmarks.Job{ItemID: item.ID}

	if g.Queue != nil {
		if err := g.Queue.Enqueue(ctx, job); err != nil {
			g.logger().Error("enqueue failed", "item", item.ID, "err", err)
		}
		return item
	}

	processed, err := g.Process(ctx, job)
	if err != nil {
		g.logger().Warn("process failed", "item", item.ID, "url", item.URL, "err", err)
	}
	if processed == nil {
		return item
	}
	return processed
}

func (g *Ingester) moveExisting(ctx context.Context, item *bookmarks.Item, status bookmarks.Status) (*bookmarks.Item, error) {
	if item.Status == status {
		return item, nil
	}
	return g.Items.UpdateItem(ctx, item.ID, bookmarks.ItemUpdate{Status: &status})
}

func (g *Ingester) findByURL(ctx context.Context, userID, u string) (*bookmarks.Item, error) {
	items, err := g.Items.FindItems(ctx, bookmarks.ItemFilter{UserID: &userID, URL: &u, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

func (g *Ingester) findOwned(ctx context.Context, userID, itemID string) (*bookmarks.Item, error) {
	item, err := g.Items.FindItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, bookmarks.Errorf(bookmarks.ENOTFOUND, "item not found")
	}
	return item, nil
}

// applyResponse fills metadata and the detected content type from a fetch.
func (g *Ingester) applyResponse(item *bookmarks.Item, resp *bookmarks.Response) {
	var ogType string
	if resp.IsHTML() && resp.Body != "" {
		meta, err := g.Scraper.Scrape(resp.Body, resp.URL)
		if err != nil {
			g.logger().Debug("scrape failed", "url", item.URL, "err", err)
		} else {
			applyMetadata(item, meta)
			ogType = meta.Type
		}
	}

	pageURL := resp.URL
	if pageURL == "" {
		pageURL = item.URL
	}
	item.Type = bookmarks.DetectContentType(pageURL, resp.ContentType, ogType)

	if item.Title == "" {
		item.Title = item.DisplayTitle()
	}
}

// applyMetadata copies scraped metadata into fields that are still empty or
// hold the URL-derived fallback title.
func applyMetadata(item *bookmarks.Item, meta *bookmarks.Metadata) {
	if meta.Title != "" && hasFallbackTitle(item) {
		item.Title = meta.Title
	}
	setIfEmpty(&item.Description, meta.Description)
	setIfEmpty(&item.ImageURL, meta.Image)
	setIfEmpty(&item.SiteName, meta.SiteName)
	setIfEmpty(&item.Author, meta.Author)
	setIfEmpty(&item.FaviconURL, meta.Favicon)
	setIfEmpty(&item.Language, meta.Language)
	if item.PublishedAt == nil && meta.PublishedAt != nil {
		item.PublishedAt = meta.PublishedAt
	}
}

func hasFallbackTitle(item *bookmarks.Item) bool {
	if item.Title == "" {
		return true
	}
	fallback := (&bookmarks.Item{URL: item.URL}).DisplayTitle()
	return item.Title == fallback
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// fetch retrieves url with f, honoring the per-domain rate limit and retry delays.
func (g *Ingester) fetch(ctx context.Context, f bookmarks.Fetcher, url string) (*bookmarks.Response, error) {
	if g.RateLimiter != nil {
		if err := g.RateLimiter.Wait(ctx, bookmarks.Hostname(url)); err != nil {
			return nil, err
		}
	}

	delays := g.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	return FetchWithRetry(ctx, url, f.Fetch, g.logger(), delays)
}

func (g *Ingester) saveSnapshot(ctx context.Context, snap *bookmarks.Snapshot) {
	if g.Snapshots == nil {
		return
	}
	snap.CreatedAt = g.now()
	if err := g.Snapshots.SaveSnapshot(ctx, snap); err != nil {
		g.logger().Warn("save snapshot failed", "item", snap.ItemID, "kind", string(snap.Kind), "err", err)
	}
}

func (g *Ingester) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return g.Logger
}

func (g *Ingester) now() time.Time {
	if g.Now == nil {
		return time.Now().UTC()
	}
	return g.Now().UTC()
}

func (g *Ingester) processTimeout() time.Duration {
	if g.ProcessTimeout <= 0 {
		return DefaultProcessTimeout
	}
	return g.ProcessTimeout
}

func (g *Ingester) pollInterval() time.Duration {
	if g.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return g.PollInterval
}

func (g *Ingester) maxContentTokens() int {
	if g.MaxContentTokens <= 0 {
		return DefaultMaxContentTokens
	}
	return g.MaxContentTokens
}
