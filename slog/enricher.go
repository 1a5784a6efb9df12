package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/landitus/bookmarks"
)

// Ensure LoggingEnricher implements bookmarks.Enricher.
var _ bookmarks.Enricher = (*LoggingEnricher)(nil)

// LoggingEnricher wraps an Enricher with logging.
type LoggingEnricher struct {
	next   bookmarks.Enricher
	logger *slog.Logger
}

// NewLoggingEnricher creates a new LoggingEnricher.
func NewLoggingEnricher(next bookmarks.Enricher, logger *slog.Logger) *LoggingEnricher {
	return &LoggingEnricher{next: next, logger: logger}
}

// Enrich delegates to the wrapped enricher and logs the proposed type and topics.
func (e *LoggingEnricher) Enrich(ctx context.Context, req bookmarks.EnrichRequest) (out *bookmarks.Enrichment, err error) {
	defer func(begin time.Time) {
		var typ bookmarks.ContentType
		var topics []string
		if out != nil {
			typ = out.Type
			topics = out.Topics
		}
		e.logger.Info("enrich",
			"url", req.URL,
			"chars", len(req.Content),
			"type", string(typ),
			"topics", topics,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.Enrich(ctx, req)
}
