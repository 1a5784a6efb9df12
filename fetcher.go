package bookmarks

import (
	"context"
	"mime"
)

// Response is a fetched resource.
type Response struct {
	// URL is the final URL after redirects.
	URL string

	// ContentType is the MIME type reported by the server.
	ContentType string

	// Body is the response body. For HTML pages this is the (rendered) markup.
	Body string
}

// IsHTML reports whether the response carries an HTML document.
// An empty content type is treated as HTML.
func (r *Response) IsHTML() bool {
	if r.ContentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil {
		return false
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}

// Fetcher retrieves pages from URLs.
// Implementations may use browser automation to handle JavaScript-rendered content.
type Fetcher interface {
	// Fetch retrieves the URL and returns the response.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (*Response, error)

	// Close releases resources held by the fetcher.
	Close() error
}
