package bookmarks

import (
	"context"
	"errors"
)

// ErrQueueClosed is returned by Enqueue and Dequeue once a queue is closed.
var ErrQueueClosed = errors.New("queue closed")

// Job asks the pipeline to process an item.
type Job struct {
	ItemID string `json:"itemId"`

	// Force refetches the page and re-runs enrichment even when the
	// content is unchanged.
	Force bool `json:"force"`
}

// JobQueue carries processing jobs from the API to background workers.
type JobQueue interface {
	// Enqueue adds a job to the queue.
	Enqueue(ctx context.Context, job Job) error

	// Dequeue blocks until a job is available or ctx is done.
	Dequeue(ctx context.Context) (Job, error)

	// Close releases queue resources.
	Close() error
}
