package mock

import (
	"context"

	"github.com/landitus/bookmarks"
)

var _ bookmarks.JobQueue = (*JobQueue)(nil)

// JobQueue is a mock implementation of bookmarks.JobQueue.
type JobQueue struct {
	EnqueueFn func(ctx context.Context, job bookmarks.Job) error
	DequeueFn func(ctx context.Context) (bookmarks.Job, error)
	CloseFn   func() error
}

func (q *JobQueue) Enqueue(ctx context.Context, job bookmarks.Job) error {
	return q.EnqueueFn(ctx, job)
}

func (q *JobQueue) Dequeue(ctx context.Context) (bookmarks.Job, error) {
	return q.DequeueFn(ctx)
}

func (q *JobQueue) Close() error {
	return q.CloseFn()
}
