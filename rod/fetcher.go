// Package rod provides a headless Chrome implementation of bookmarks.Fetcher
// for pages that render their content with JavaScript.
package rod

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/landitus/bookmarks"
)

// DefaultFetchTimeout bounds a single page load.
const DefaultFetchTimeout = 20 * time.Second

// Ensure Fetcher implements bookmarks.Fetcher at compile time.
var _ bookmarks.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML using Chrome browser automation.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager     *BrowserManager
	managerOpts []ManagerOption
	timeout     time.Duration
	userAgent   string
	closed      atomic.Bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the maximum time to wait for a page to load.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent overrides the browser's User-Agent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithManagerOptions configures the underlying BrowserManager.
func WithManagerOptions(opts ...ManagerOption) Option {
	return func(f *Fetcher) {
		f.managerOpts = append(f.managerOpts, opts...)
	}
}

// NewFetcher returns a Fetcher. Chrome is launched on the first Fetch, so
// a missing Chrome installation surfaces as a Fetch error.
// Close must be called when the Fetcher is no longer needed.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{timeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(f)
	}
	f.manager = NewBrowserManager(f.managerOpts...)
	return f
}

// Fetch navigates to url and returns the rendered HTML, with shadow roots
// serialized, and the final URL after redirects.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*bookmarks.Response, error) {
	if f.closed.Load() {
		return nil, bookmarks.Errorf(bookmarks.EINVALID, "fetcher is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := f.manager.Acquire()
	if err != nil {
		return nil, err
	}
	defer f.manager.Release()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	defer page.Close()

	page = page.Context(ctx)

	if f.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
			return nil, contextErr(ctx, err)
		}
	}

	if err := page.Navigate(url); err != nil {
		return nil, contextErr(ctx, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, contextErr(ctx, err)
	}

	html, err := serializeHTML(page)
	if err != nil {
		return nil, contextErr(ctx, err)
	}

	info, err := page.Info()
	if err != nil {
		return nil, contextErr(ctx, err)
	}

	return &bookmarks.Response{
		URL:         info.URL,
		ContentType: "text/html",
		Body:        html,
	}, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.manager.Close()
}

// LauncherPID returns the process ID of the browser launcher, or 0 when
// Chrome is not running.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}

// contextErr prefers the context's error so callers can match on
// context.DeadlineExceeded and context.Canceled.
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
