package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/landitus/bookmarks"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the number of jobs a Processor runs concurrently when
// Workers is not set.
const DefaultWorkers = 2

// dequeueBackoff is the pause after a failed Dequeue before trying again.
const dequeueBackoff = time.Second

// JobProcessor processes a single job. *Ingester implements it.
type JobProcessor interface {
	Process(ctx context.Context, job bookmarks.Job) (*bookmarks.Item, error)
}

var _ JobProcessor = (*Ingester)(nil)

// Processor consumes a JobQueue and runs jobs with a bounded number of workers.
type Processor struct {
	Queue     bookmarks.JobQueue
	Processor JobProcessor
	Workers   int
	Logger    *slog.Logger
}

// Run processes jobs until ctx is canceled or the queue is closed. Jobs in
// flight at that point run to completion, bounded by the process timeout.
func (p *Processor) Run(ctx context.Context) error {
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	jobCtx := context.WithoutCancel(ctx)

	for {
		job, err := p.Queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, bookmarks.ErrQueueClosed) {
				break
			}
			logger.Error("dequeue failed", "err", err)
			select {
			case <-ctx.Done():
			case <-time.After(dequeueBackoff):
			}
			continue
		}

		g.Go(func() error {
			start := time.Now()
			item, err := p.Processor.Process(jobCtx, job)
			if err != nil {
				logger.Warn("process failed", "item", job.ItemID, "force", job.Force, "err", err)
				return nil
			}
			logger.Info("processed", "item", job.ItemID, "url", item.URL, "duration", time.Since(start))
			return nil
		})
	}

	return g.Wait()
}
