package ingest

import (
	"context"
	"sync"

	"github.com/landitus/bookmarks"
	"github.com/landitus/bookmarks/bloom"
	"golang.org/x/sync/errgroup"
)

// DefaultImportConcurrency is the number of URLs saved in parallel by Import.
const DefaultImportConcurrency = 4

// ImportOptions configures Import.
type ImportOptions struct {
	// Status is the bucket imported items are placed in. Defaults to inbox.
	Status bookmarks.Status

	// Concurrency is the number of parallel saves. Defaults to DefaultImportConcurrency.
	Concurrency int

	// Progress, if set, receives an event per URL. Calls are serialized.
	Progress ProgressFunc
}

// ImportResult holds the outcome of an import.
type ImportResult struct {
	Saved    int
	Existing int
	Skipped  int
	Failed   int
}

// ProgressEvent reports the outcome of a single URL during an import.
type ProgressEvent struct {
	Type      ProgressType
	URL       string
	Item      *bookmarks.Item
	Error     error
	Completed int
	Total     int
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressSaved ProgressType = iota
	ProgressExisting
	ProgressSkipped
	ProgressFailed
)

// ProgressFunc is a callback for reporting import progress.
type ProgressFunc func(event ProgressEvent)

// Import saves urls for userID. Invalid URLs and duplicates within the batch
// are skipped; the remaining URLs are saved concurrently. A failed save is
// counted and reported but does not stop the import.
func (g *Ingester) Import(ctx context.Context, userID string, urls []string, opts ImportOptions) (*ImportResult, error) {
	if userID == "" {
		return nil, bookmarks.Errorf(bookmarks.EUNAUTHORIZED, "user required")
	}
	if opts.Status != "" && !opts.Status.IsValid() {
		return nil, bookmarks.Errorf(bookmarks.EINVALID, "invalid status %q", opts.Status)
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultImportConcurrency
	}

	var (
		mu        sync.Mutex
		result    ImportResult
		completed int
	)
	total := len(urls)
	report := func(event ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		switch event.Type {
		case ProgressSaved:
			result.Saved++
		case ProgressExisting:
			result.Existing++
		case ProgressSkipped:
			result.Skipped++
		case ProgressFailed:
			result.Failed++
		}
		completed++
		if opts.Progress != nil {
			event.Completed = completed
			event.Total = total
			opts.Progress(event)
		}
	}

	seen := bloom.NewFilter(uint(total), bloom.DefaultFalsePositiveRate)

	var eg errgroup.Group
	eg.SetLimit(concurrency)

	for _, raw := range urls {
		if ctx.Err() != nil {
			break
		}

		u, err := bookmarks.NormalizeURL(raw)
		if err != nil {
			report(ProgressEvent{Type: ProgressSkipped, URL: raw, Error: err})
			continue
		}
		if seen.Seen(u) {
			report(ProgressEvent{Type: ProgressSkipped, URL: u})
			continue
		}

		eg.Go(func() error {
			item, created, err := g.Save(ctx, userID, u, SaveOptions{Status: opts.Status})
			switch {
			case err != nil:
				g.logger().Warn("import save failed", "url", u, "err", err)
				report(ProgressEvent{Type: ProgressFailed, URL: u, Error: err})
			case created:
				report(ProgressEvent{Type: ProgressSaved, URL: u, Item: item})
			default:
				report(ProgressEvent{Type: ProgressExisting, URL: u, Item: item})
			}
			return nil
		})
	}

	_ = eg.Wait()
	return &result, ctx.Err()
}
