package bookmarks

import "time"

// ExtractResult holds the extracted content from an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML.
	// Boilerplate (nav, footer, sidebar, ads) has been removed.
	ContentHTML string

	// TextContent is ContentHTML with all markup stripped.
	TextContent string

	Excerpt     string
	Byline      string
	SiteName    string
	Image       string
	Language    string
	PublishedAt *time.Time
}

// Extractor extracts main content from HTML pages, removing boilerplate.
type Extractor interface {
	// Extract processes raw HTML fetched from pageURL and returns the main
	// content. pageURL may be empty.
	Extract(html, pageURL string) (*ExtractResult, error)
}
