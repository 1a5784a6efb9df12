// Package http provides an HTTP-based implementation of bookmarks.Fetcher
// for pages that don't require JavaScript rendering.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/landitus/bookmarks"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 15 * time.Second

// DefaultUserAgent identifies the fetcher to remote servers.
const DefaultUserAgent = "Mozilla/5.0 (compatible; bookmarks/1.0; +https://github.com/landitus/bookmarks)"

// MaxBodySize caps the number of bytes read from a response body.
const MaxBodySize int64 = 10 << 20

// Ensure Fetcher implements bookmarks.Fetcher at compile time.
var _ bookmarks.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves pages using plain HTTP requests.
// Unlike rod.Fetcher, this does not execute JavaScript.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with requests.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves url. Bodies are only kept for HTML responses; for other
// resources (PDFs, images) the response carries the final URL and content
// type. A missing Content-Type header is sniffed from the first bytes.
//
// Gone and missing pages return ENOTFOUND, other non-2xx statuses a plain
// error naming the status.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*bookmarks.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, bookmarks.Errorf(bookmarks.EINVALID, "invalid URL %q", url)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		return nil, err
	}

	out := &bookmarks.Response{
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
	}

	if out.ContentType == "" {
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(resp.Body, head)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return nil, err
		}
		head = head[:n]
		out.ContentType = http.DetectContentType(head)
		if !out.IsHTML() {
			return out, nil
		}
		rest, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize-int64(n)))
		if err != nil {
			return nil, err
		}
		out.Body = string(head) + string(rest)
		return out, nil
	}

	if !out.IsHTML() {
		return out, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, err
	}
	out.Body = string(body)
	return out, nil
}

// sniffLen is the number of bytes http.DetectContentType considers.
const sniffLen = 512

func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return bookmarks.Errorf(bookmarks.ENOTFOUND, "page not found (HTTP %d)", code)
	default:
		return fmt.Errorf("HTTP %d %s", code, http.StatusText(code))
	}
}

// Close drops idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
