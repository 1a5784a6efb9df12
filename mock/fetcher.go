package mock

import (
	"context"

	"github.com/landitus/bookmarks"
)

var _ bookmarks.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of bookmarks.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*bookmarks.Response, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*bookmarks.Response, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

var _ bookmarks.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of bookmarks.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
