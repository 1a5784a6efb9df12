package main

import (
	"context"
	"fmt"

	bgin "github.com/landitus/bookmarks/gin"
	"github.com/landitus/bookmarks/ingest"
)

// Run executes the serve command. It blocks until the context is canceled,
// then stops accepting requests and lets in-flight jobs finish.
func (c *ServeCmd) Run(deps *Dependencies) error {
	server := bgin.NewServer()
	server.Addr = c.Addr
	server.Items = deps.Items
	server.Topics = deps.Topics
	server.APIKeys = deps.APIKeys
	server.Ingester = deps.Ingester
	server.Feeds = deps.FeedWriter
	server.Logger = deps.Logger
	server.ReprocessWait = c.ReprocessWait

	workerCtx, stopWorkers := context.WithCancel(deps.Ctx)
	defer stopWorkers()
	done := c.startWorkers(workerCtx, deps)

	if err := server.Open(); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", c.Addr, err)
	}
	deps.Logger.Info("listening", "addr", c.Addr, "port", server.Port(), "workers", c.Workers)
	fmt.Fprintf(deps.Stdout, "Listening on %s\n", server.URL())

	<-deps.Ctx.Done()
	deps.Logger.Info("shutting down")

	if err := server.Close(); err != nil {
		deps.Logger.Warn("http shutdown", "err", err)
	}
	stopWorkers()
	return <-done
}

// startWorkers runs the job processor and re-enqueues items a previous run
// left pending or processing. The returned channel yields the processor's
// result once ctx is canceled.
func (c *ServeCmd) startWorkers(ctx context.Context, deps *Dependencies) <-chan error {
	done := make(chan error, 1)
	if deps.Queue == nil {
		done <- nil
		return done
	}

	processor := &ingest.Processor{
		Queue:     deps.Queue,
		Processor: deps.Ingester,
		Workers:   c.Workers,
		Logger:    deps.Logger,
	}
	go func() { done <- processor.Run(ctx) }()

	// Resume blocks while the queue is full, so it runs beside the workers.
	go func() {
		n, err := deps.Ingester.Resume(ctx)
		if err != nil && ctx.Err() == nil {
			deps.Logger.Error("resume unfinished items", "resumed", n, "err", err)
			return
		}
		if n > 0 {
			deps.Logger.Info("resumed unfinished items", "count", n)
		}
	}()
	return done
}
