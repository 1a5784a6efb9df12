package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/landitus/bookmarks"
)

// minStaticTextLen is the extracted text length below which a page is
// refetched with the browser fetcher.
const minStaticTextLen = 200

// maxTruncateRounds bounds the count-and-cut loop used to fit content into
// the enrichment token budget.
const maxTruncateRounds = 3

// charsPerToken approximates token counts when no TokenCounter is configured.
const charsPerToken = 4

// outcome is what processing learned about an item.
type outcome struct {
	upd      bookmarks.ItemUpdate
	topics   []string
	enriched bool
	markdown string
	html     string
	pageURL  string
}

// Process extracts, converts and enriches the content of the job's item.
// The whole run is bounded by ProcessTimeout. On failure the item is marked
// failed with the error message and returned together with the error.
func (g *Ingester) Process(ctx context.Context, job bookmarks.Job) (*bookmarks.Item, error) {
	item, err := g.Items.FindItemByID(ctx, job.ItemID)
	if err != nil {
		return nil, err
	}

	processing := bookmarks.ProcessingProcessing
	item, err = g.Items.UpdateItem(ctx, item.ID, bookmarks.ItemUpdate{ProcessingStatus: &processing})
	if err != nil {
		return nil, err
	}

	timeout := g.processTimeout()
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		out *outcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := g.process(pctx, item, job.Force)
		done <- result{out: out, err: err}
	}()

	// Writes below use a context that survives cancellation so an item is
	// never left in the processing state.
	wctx := context.WithoutCancel(ctx)

	var r result
	select {
	case r = <-done:
	case <-pctx.Done():
		r.err = pctx.Err()
	}

	if r.err != nil {
		if errors.Is(pctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			r.err = fmt.Errorf("processing timed out after %s", timeout)
		}
		return g.fail(wctx, item, r.err)
	}
	return g.complete(wctx, item, r.out)
}

func (g *Ingester) complete(ctx context.Context, item *bookmarks.Item, out *outcome) (*bookmarks.Item, error) {
	if out.enriched {
		if _, err := g.Topics.SetItemTopics(ctx, item.UserID, item.ID, out.topics); err != nil {
			return g.fail(ctx, item, fmt.Errorf("set topics: %w", err))
		}
	}

	completed := bookmarks.ProcessingCompleted
	empty := ""
	now := g.now()
	out.upd.ProcessingStatus = &completed
	out.upd.ProcessingError = &empty
	out.upd.ProcessedAt = &now

	updated, err := g.Items.UpdateItem(ctx, item.ID, out.upd)
	if err != nil {
		return nil, err
	}

	if out.html != "" {
		g.saveSnapshot(ctx, &bookmarks.Snapshot{
			ItemID: item.ID,
			Kind:   bookmarks.SnapshotHTML,
			URL:    out.pageURL,
			Title:  updated.Title,
			Body:   out.html,
		})
	}
	if out.markdown != "" {
		g.saveSnapshot(ctx, &bookmarks.Snapshot{
			ItemID: item.ID,
			Kind:   bookmarks.SnapshotMarkdown,
			URL:    item.URL,
			Title:  updated.Title,
			Body:   out.markdown,
		})
	}

	return updated, nil
}

func (g *Ingester) fail(ctx context.Context, item *bookmarks.Item, cause error) (*bookmarks.Item, error) {
	failed := bookmarks.ProcessingFailed
	msg := cause.Error()
	updated, err := g.Items.UpdateItem(ctx, item.ID, bookmarks.ItemUpdate{
		ProcessingStatus: &failed,
		ProcessingError:  &msg,
	})
	if err != nil {
		return nil, errors.Join(cause, err)
	}
	return updated, cause
}

// process does the work of Process without touching the item store.
func (g *Ingester) process(ctx context.Context, item *bookmarks.Item, force bool) (*outcome, error) {
	out := &outcome{pageURL: item.URL}
	meta := *item

	html, fromSnapshot := "", false
	if !force && g.Snapshots != nil {
		snap, err := g.Snapshots.FindSnapshot(ctx, item.ID, bookmarks.SnapshotHTML)
		switch {
		case err == nil:
			html, fromSnapshot = snap.Body, true
			if snap.URL != "" {
				out.pageURL = snap.URL
			}
		case bookmarks.ErrorCode(err) != bookmarks.ENOTFOUND:
			g.logger().Warn("find snapshot failed", "item", item.ID, "err", err)
		}
	}

	if html == "" {
		resp, err := g.fetch(ctx, g.Fetcher, item.URL)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		if resp.URL != "" {
			out.pageURL = resp.URL
		}
		if !resp.IsHTML() || resp.Body == "" {
			return g.enrichOnly(ctx, item, &meta, out, force)
		}
		html = resp.Body
		g.rescrape(&meta, html, out.pageURL)
	}

	extracted, extractErr := g.extract(html, out.pageURL)
	if g.BrowserFetcher != nil && textLen(extracted) < minStaticTextLen {
		rendered, renderedHTML, err := g.render(ctx, item.URL)
		if err != nil {
			g.logger().Debug("browser fetch failed", "url", item.URL, "err", err)
		} else if textLen(rendered) > textLen(extracted) {
			extracted, extractErr = rendered, nil
			html, fromSnapshot = renderedHTML, false
		}
	}
	if extractErr != nil {
		return nil, extractErr
	}
	if !fromSnapshot {
		out.html = html
	}

	if strings.TrimSpace(extracted.ContentHTML) == "" {
		// No readable body; enrich from the page metadata alone.
		applyExtracted(&meta, extracted)
		applyMetadataUpdate(&out.upd, item, &meta)
		return g.enrichOnly(ctx, item, &meta, out, force)
	}

	markdown, err := g.Converter.Convert(extracted.ContentHTML)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	out.markdown = markdown

	text := extracted.TextContent
	if strings.TrimSpace(text) == "" {
		text = markdown
	}
	words := bookmarks.CountWords(text)
	readingTime := bookmarks.ReadingTime(words)
	hash := computeHash(markdown)

	out.upd.Content = &markdown
	out.upd.WordCount = &words
	out.upd.ReadingTime = &readingTime
	out.upd.ContentHash = &hash
	if extracted.Excerpt != "" {
		out.upd.Excerpt = &extracted.Excerpt
	}
	if lang := g.detectLanguage(text, extracted.Language); lang != "" {
		out.upd.Language = &lang
	}

	applyExtracted(&meta, extracted)
	applyMetadataUpdate(&out.upd, item, &meta)

	if !force && hash == item.ContentHash && item.Summary != "" {
		return out, nil
	}

	if err := g.enrich(ctx, item, &meta, markdown, out); err != nil {
		return nil, err
	}
	return out, nil
}

// enrichOnly handles resources without an HTML body, such as PDFs and images.
func (g *Ingester) enrichOnly(ctx context.Context, item, meta *bookmarks.Item, out *outcome, force bool) (*outcome, error) {
	if !force && item.Summary != "" {
		return out, nil
	}
	if err := g.enrich(ctx, item, meta, "", out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Ingester) enrich(ctx context.Context, item, meta *bookmarks.Item, markdown string, out *outcome) error {
	if g.Enricher == nil {
		return nil
	}

	content := g.truncate(ctx, markdown)
	enrichment, err := g.Enricher.Enrich(ctx, bookmarks.EnrichRequest{
		URL:         item.URL,
		Title:       meta.Title,
		Description: meta.Description,
		Content:     content,
		Type:        item.Type,
	})
	if err != nil {
		return fmt.Errorf("enrich: %w", err)
	}

	if enrichment.Summary != "" {
		out.upd.Summary = &enrichment.Summary
	}
	if t := bookmarks.MergeContentType(item.Type, enrichment.Type); t != item.Type {
		out.upd.Type = &t
	}
	out.topics = bookmarks.CleanTopics(enrichment.Topics)
	out.enriched = true
	return nil
}

// extract runs the primary extractor, falling back to the secondary one on
// error or empty content. The result is never nil when err is nil.
func (g *Ingester) extract(html, pageURL string) (*bookmarks.ExtractResult, error) {
	result, err := g.extractWith(g.Extractor, html, pageURL)
	if err == nil && !isEmpty(result) {
		return result, nil
	}
	if g.FallbackExtractor == nil {
		if err != nil {
			return nil, fmt.Errorf("extract: %w", err)
		}
		return result, nil
	}

	fallback, ferr := g.extractWith(g.FallbackExtractor, html, pageURL)
	if ferr != nil {
		if err != nil {
			return nil, fmt.Errorf("extract: %w", errors.Join(err, ferr))
		}
		return result, nil
	}
	if err == nil && textLen(result) >= textLen(fallback) {
		return result, nil
	}
	return fallback, nil
}

func (g *Ingester) extractWith(e bookmarks.Extractor, html, pageURL string) (*bookmarks.ExtractResult, error) {
	result, err := e.Extract(html, pageURL)
	if err == nil && result == nil {
		result = &bookmarks.ExtractResult{}
	}
	return result, err
}

// render fetches url with the browser fetcher and extracts it.
func (g *Ingester) render(ctx context.Context, url string) (*bookmarks.ExtractResult, string, error) {
	resp, err := g.fetch(ctx, g.BrowserFetcher, url)
	if err != nil {
		return nil, "", err
	}
	result, err := g.extract(resp.Body, resp.URL)
	if err != nil {
		return nil, "", err
	}
	return result, resp.Body, nil
}

// rescrape refreshes metadata from freshly fetched HTML.
func (g *Ingester) rescrape(meta *bookmarks.Item, html, pageURL string) {
	m, err := g.Scraper.Scrape(html, pageURL)
	if err != nil {
		g.logger().Debug("scrape failed", "url", meta.URL, "err", err)
		return
	}
	applyMetadata(meta, m)
}

// truncate cuts content to fit MaxContentTokens. Token counts come from the
// TokenCounter when configured, otherwise from a character estimate.
func (g *Ingester) truncate(ctx context.Context, content string) string {
	limit := g.maxContentTokens()
	if content == "" {
		return content
	}
	if g.TokenCounter == nil {
		return truncateRunes(content, limit*charsPerToken)
	}

	for range maxTruncateRounds {
		n, err := g.TokenCounter.CountTokens(ctx, content)
		if err != nil {
			g.logger().Debug("count tokens failed", "err", err)
			return truncateRunes(content, limit*charsPerToken)
		}
		if n <= limit {
			return content
		}
		runes := []rune(content)
		keep := int(float64(len(runes)) * float64(limit) / float64(n))
		content = string(runes[:keep])
	}
	return content
}

func (g *Ingester) detectLanguage(text, declared string) string {
	if g.Languages != nil {
		if lang := g.Languages.DetectLanguage(text); lang != "" {
			return lang
		}
	}
	return declared
}

func applyExtracted(meta *bookmarks.Item, r *bookmarks.ExtractResult) {
	if r.Title != "" && hasFallbackTitle(meta) {
		meta.Title = r.Title
	}
	setIfEmpty(&meta.Description, r.Excerpt)
	setIfEmpty(&meta.Author, r.Byline)
	setIfEmpty(&meta.SiteName, r.SiteName)
	setIfEmpty(&meta.ImageURL, r.Image)
	if meta.PublishedAt == nil && r.PublishedAt != nil {
		meta.PublishedAt = r.PublishedAt
	}
}

// applyMetadataUpdate records fields of meta that differ from item.
func applyMetadataUpdate(upd *bookmarks.ItemUpdate, item, meta *bookmarks.Item) {
	diff := func(dst **string, before, after string) {
		if after != before {
			*dst = &after
		}
	}
	diff(&upd.Title, item.Title, meta.Title)
	diff(&upd.Description, item.Description, meta.Description)
	diff(&upd.ImageURL, item.ImageURL, meta.ImageURL)
	diff(&upd.SiteName, item.SiteName, meta.SiteName)
	diff(&upd.Author, item.Author, meta.Author)
	diff(&upd.FaviconURL, item.FaviconURL, meta.FaviconURL)
	if item.PublishedAt == nil && meta.PublishedAt != nil {
		upd.PublishedAt = meta.PublishedAt
	}
}

func isEmpty(r *bookmarks.ExtractResult) bool {
	return r == nil || (strings.TrimSpace(r.TextContent) == "" && strings.TrimSpace(r.ContentHTML) == "")
}

func textLen(r *bookmarks.ExtractResult) int {
	if r == nil {
		return 0
	}
	if n := len(strings.TrimSpace(r.TextContent)); n > 0 {
		return n
	}
	return len(strings.TrimSpace(r.ContentHTML))
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// computeHash returns the xxhash of content as hex.
func computeHash(content string) string {
	return fmt.Sprintf("%x", xxhash.Sum64String(content))
}
