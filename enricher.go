package bookmarks

import "context"

// EnrichRequest is the input to an Enricher.
type EnrichRequest struct {
	URL         string
	Title       string
	Description string

	// Content is the item's Markdown body, possibly truncated.
	Content string

	// Type is the content type detected from URL and metadata.
	Type ContentType
}

// Enrichment is what an Enricher learned about an item.
type Enrichment struct {
	Type    ContentType
	Summary string
	Topics  []string
}

// Enricher classifies and summarizes items, and proposes topic tags.
type Enricher interface {
	Enrich(ctx context.Context, req EnrichRequest) (*Enrichment, error)
}
