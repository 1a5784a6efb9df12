package redis_test

import (
	"context"
	"testing"

	"github.com/landitus/bookmarks/redis"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("rejects malformed URL", func(t *testing.T) {
		t.Parallel()

		_, err := redis.Open(context.Background(), "http://localhost:6379")

		require.ErrorContains(t, err, "invalid redis URL")
	})
}
