//go:build integration

package redis_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/landitus/bookmarks"
	"github.com/landitus/bookmarks/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestQueue(t *testing.T) *redis.Queue {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	key := fmt.Sprintf("bookmarks:test:%s:%d", t.Name(), time.Now().UnixNano())
	q, err := redis.Open(context.Background(), url, redis.WithKey(key), redis.WithPollTimeout(100*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q
}

func TestQueue_Integration(t *testing.T) {
	t.Run("delivers jobs in FIFO order", func(t *testing.T) {
		q := openTestQueue(t)
		ctx := context.Background()

		require.NoError(t, q.Enqueue(ctx, bookmarks.Job{ItemID: "a"}))
		require.NoError(t, q.Enqueue(ctx, bookmarks.Job{ItemID: "b", Force: true}))

		n, err := q.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		first, err := q.Dequeue(ctx)
		require.NoError(t, err)
		second, err := q.Dequeue(ctx)
		require.NoError(t, err)

		assert.Equal(t, bookmarks.Job{ItemID: "a"}, first)
		assert.Equal(t, bookmarks.Job{ItemID: "b", Force: true}, second)
	})

	t.Run("dequeue returns when context is done", func(t *testing.T) {
		q := openTestQueue(t)
		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()

		_, err := q.Dequeue(ctx)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("closed queue reports ErrQueueClosed", func(t *testing.T) {
		q := openTestQueue(t)
		require.NoError(t, q.Close())

		err := q.Enqueue(context.Background(), bookmarks.Job{ItemID: "a"})

		assert.ErrorIs(t, err, bookmarks.ErrQueueClosed)
	})
}
