package ingest

import (
	"context"
	"sync"

	"github.com/landitus/bookmarks"
)

var _ bookmarks.JobQueue = (*MemoryQueue)(nil)

// DefaultQueueSize is the buffer size of a MemoryQueue created with size 0.
const DefaultQueueSize = 256

// MemoryQueue is an in-process JobQueue backed by a buffered channel.
// Jobs are lost when the process exits.
type MemoryQueue struct {
	jobs chan bookmarks.Job
	done chan struct{}
	once sync.Once
}

// NewMemoryQueue creates a queue holding up to size pending jobs.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &MemoryQueue{
		jobs: make(chan bookmarks.Job, size),
		done: make(chan struct{}),
	}
}

// Enqueue adds a job, blocking while the queue is full.
func (q *MemoryQueue) Enqueue(ctx context.Context, job bookmarks.Job) error {
	select {
	case <-q.done:
		return bookmarks.ErrQueueClosed
	default:
	}

	select {
	case q.jobs <- job:
		return nil
	case <-q.done:
		return bookmarks.ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until a job is available, the queue is closed or ctx is done.
func (q *MemoryQueue) Dequeue(ctx context.Context) (bookmarks.Job, error) {
	select {
	case job := <-q.jobs:
		return job, nil
	case <-q.done:
		return bookmarks.Job{}, bookmarks.ErrQueueClosed
	case <-ctx.Done():
		return bookmarks.Job{}, ctx.Err()
	}
}

// Len returns the number of pending jobs.
func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}

// Close stops the queue. Pending jobs are discarded. Close is idempotent.
func (q *MemoryQueue) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}
