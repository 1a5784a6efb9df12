//go:build integration

package s3_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/landitus/bookmarks"
	bs3 "github.com/landitus/bookmarks/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotStore_Integration(t *testing.T) {
	bucket := os.Getenv("BOOKMARKS_S3_BUCKET")
	if bucket == "" {
		t.Skip("BOOKMARKS_S3_BUCKET not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := bs3.Open(ctx, bs3.Config{
		Bucket:       bucket,
		Prefix:       "bookmarks-test",
		Region:       os.Getenv("AWS_REGION"),
		Endpoint:     os.Getenv("BOOKMARKS_S3_ENDPOINT"),
		UsePathStyle: os.Getenv("BOOKMARKS_S3_ENDPOINT") != "",
	})
	require.NoError(t, err)

	itemID := uuid.NewString()
	t.Cleanup(func() { _ = store.DeleteSnapshots(context.Background(), itemID) })

	snap := &bookmarks.Snapshot{
		ItemID:    itemID,
		Kind:      bookmarks.SnapshotMarkdown,
		URL:       "https://example.com/",
		Title:     "Example",
		Body:      "# Example",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.SaveSnapshot(ctx, snap))

	got, err := store.FindSnapshot(ctx, itemID, bookmarks.SnapshotMarkdown)
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	require.NoError(t, store.DeleteSnapshots(ctx, itemID))
	_, err = store.FindSnapshot(ctx, itemID, bookmarks.SnapshotMarkdown)
	assert.Equal(t, bookmarks.ENOTFOUND, bookmarks.ErrorCode(err))
}
