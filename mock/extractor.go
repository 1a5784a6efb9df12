package mock

import "github.com/landitus/bookmarks"

var _ bookmarks.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of bookmarks.Extractor.
type Extractor struct {
	ExtractFn func(html, pageURL string) (*bookmarks.ExtractResult, error)
}

func (e *Extractor) Extract(html, pageURL string) (*bookmarks.ExtractResult, error) {
	return e.ExtractFn(html, pageURL)
}

var _ bookmarks.MetadataScraper = (*MetadataScraper)(nil)

// MetadataScraper is a mock implementation of bookmarks.MetadataScraper.
type MetadataScraper struct {
	ScrapeFn func(html, pageURL string) (*bookmarks.Metadata, error)
}

func (s *MetadataScraper) Scrape(html, pageURL string) (*bookmarks.Metadata, error) {
	return s.ScrapeFn(html, pageURL)
}

var _ bookmarks.LanguageDetector = (*LanguageDetector)(nil)

// LanguageDetector is a mock implementation of bookmarks.LanguageDetector.
type LanguageDetector struct {
	DetectLanguageFn func(text string) string
}

func (d *LanguageDetector) DetectLanguage(text string) string {
	return d.DetectLanguageFn(text)
}
