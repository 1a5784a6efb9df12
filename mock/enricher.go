package mock

import (
	"context"

	"github.com/landitus/bookmarks"
)

var _ bookmarks.Enricher = (*Enricher)(nil)

// Enricher is a mock implementation of bookmarks.Enricher.
type Enricher struct {
	EnrichFn func(ctx context.Context, req bookmarks.EnrichRequest) (*bookmarks.Enrichment, error)
}

func (e *Enricher) Enrich(ctx context.Context, req bookmarks.EnrichRequest) (*bookmarks.Enrichment, error) {
	return e.EnrichFn(ctx, req)
}
