package slog

import (
	"context"
	"log/slog"

	"github.com/landitus/bookmarks"
)

// Ensure LoggingQueue implements bookmarks.JobQueue.
var _ bookmarks.JobQueue = (*LoggingQueue)(nil)

// LoggingQueue wraps a JobQueue with debug logging.
type LoggingQueue struct {
	next   bookmarks.JobQueue
	logger *slog.Logger
}

// NewLoggingQueue creates a new LoggingQueue.
func NewLoggingQueue(next bookmarks.JobQueue, logger *slog.Logger) *LoggingQueue {
	return &LoggingQueue{next: next, logger: logger}
}

// Enqueue delegates to the wrapped queue and logs the job.
func (q *LoggingQueue) Enqueue(ctx context.Context, job bookmarks.Job) (err error) {
	defer func() {
		q.logger.Debug("enqueue", "item", job.ItemID, "force", job.Force, "err", err)
	}()
	return q.next.Enqueue(ctx, job)
}

// Dequeue delegates to the wrapped queue and logs received jobs.
// Context cancellation is not logged.
func (q *LoggingQueue) Dequeue(ctx context.Context) (bookmarks.Job, error) {
	job, err := q.next.Dequeue(ctx)
	switch {
	case err == nil:
		q.logger.Debug("dequeue", "item", job.ItemID, "force", job.Force)
	case ctx.Err() == nil:
		q.logger.Debug("dequeue", "err", err)
	}
	return job, err
}

// Close delegates to the wrapped queue.
func (q *LoggingQueue) Close() error {
	return q.next.Close()
}
