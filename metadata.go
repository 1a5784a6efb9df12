package bookmarks

import "time"

// Metadata holds page metadata read from Open Graph, Twitter card, JSON-LD
// and plain HTML tags.
type Metadata struct {
	Title       string
	Description string
	Image       string
	SiteName    string
	Author      string
	Favicon     string
	Canonical   string
	Language    string

	// Type is the Open Graph type (og:type), e.g. "article" or "video.other".
	Type string

	PublishedAt *time.Time
}

// MetadataScraper extracts metadata from HTML pages.
type MetadataScraper interface {
	// Scrape parses html fetched from pageURL. Relative image and favicon
	// references are resolved against pageURL.
	Scrape(html, pageURL string) (*Metadata, error)
}
