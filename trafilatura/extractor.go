// Package trafilatura implements bookmarks.Extractor with go-trafilatura. It
// serves as the fallback when the primary extractor finds no content.
package trafilatura

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/landitus/bookmarks"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements bookmarks.Extractor at compile time.
var _ bookmarks.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML, pageURL string) (*bookmarks.ExtractResult, error) {
	if rawHTML == "" {
		return nil, bookmarks.Errorf(bookmarks.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		IncludeImages:   true,
		IncludeLinks:    true,
	}
	if pageURL != "" {
		u, err := url.Parse(pageURL)
		if err != nil {
			return nil, bookmarks.Errorf(bookmarks.EINVALID, "invalid page URL: %v", err)
		}
		opts.OriginalURL = u
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, err
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
	}

	out := &bookmarks.ExtractResult{
		Title:       result.Metadata.Title,
		ContentHTML: contentHTML,
		TextContent: strings.TrimSpace(result.ContentText),
		Excerpt:     result.Metadata.Description,
		Byline:      result.Metadata.Author,
		SiteName:    result.Metadata.Sitename,
		Image:       result.Metadata.Image,
		Language:    result.Metadata.Language,
	}
	if !result.Metadata.Date.IsZero() {
		published := result.Metadata.Date.UTC()
		out.PublishedAt = &published
	}

	return out, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
