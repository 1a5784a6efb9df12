package mock

import (
	"context"

	"github.com/landitus/bookmarks"
)

var _ bookmarks.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is a mock implementation of bookmarks.SnapshotStore.
type SnapshotStore struct {
	SaveSnapshotFn    func(ctx context.Context, snap *bookmarks.Snapshot) error
	FindSnapshotFn    func(ctx context.Context, itemID string, kind bookmarks.SnapshotKind) (*bookmarks.Snapshot, error)
	DeleteSnapshotsFn func(ctx context.Context, itemID string) error
}

func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snap *bookmarks.Snapshot) error {
	return s.SaveSnapshotFn(ctx, snap)
}

func (s *SnapshotStore) FindSnapshot(ctx context.Context, itemID string, kind bookmarks.SnapshotKind) (*bookmarks.Snapshot, error) {
	return s.FindSnapshotFn(ctx, itemID, kind)
}

func (s *SnapshotStore) DeleteSnapshots(ctx context.Context, itemID string) error {
	return s.DeleteSnapshotsFn(ctx, itemID)
}
