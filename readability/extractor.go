// Package readability implements bookmarks.Extractor with go-readability,
// a port of Mozilla's Readability.
package readability

import (
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/landitus/bookmarks"
)

// Ensure Extractor implements bookmarks.Extractor at compile time.
var _ bookmarks.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content. Relative links in
// the content are resolved against pageURL when it is given.
func (e *Extractor) Extract(rawHTML, pageURL string) (*bookmarks.ExtractResult, error) {
	if rawHTML == "" {
		return nil, bookmarks.Errorf(bookmarks.EINVALID, "empty HTML input")
	}

	var u *url.URL
	if pageURL != "" {
		var err error
		if u, err = url.Parse(pageURL); err != nil {
			return nil, bookmarks.Errorf(bookmarks.EINVALID, "invalid page URL: %v", err)
		}
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), u)
	if err != nil {
		return nil, err
	}

	return &bookmarks.ExtractResult{
		Title:       article.Title,
		ContentHTML: article.Content,
		TextContent: strings.TrimSpace(article.TextContent),
		Excerpt:     article.Excerpt,
		Byline:      article.Byline,
		SiteName:    article.SiteName,
		Image:       article.Image,
		Language:    article.Language,
		PublishedAt: article.PublishedTime,
	}, nil
}
