package bookmarks

import (
	"context"
	"time"
)

// SnapshotKind identifies the representation stored in a snapshot.
type SnapshotKind string

// SnapshotKind constants.
const (
	SnapshotHTML     SnapshotKind = "html"
	SnapshotMarkdown SnapshotKind = "markdown"
)

// Snapshot is a stored copy of an item's page, either the raw HTML fetched on
// save or the Markdown produced by processing.
type Snapshot struct {
	ItemID    string
	Kind      SnapshotKind
	URL       string
	Title     string
	Body      string
	CreatedAt time.Time
}

// Validate returns an error if the snapshot contains invalid fields.
func (s *Snapshot) Validate() error {
	if s.ItemID == "" {
		return Errorf(EINVALID, "snapshot item ID required")
	}
	if s.Kind != SnapshotHTML && s.Kind != SnapshotMarkdown {
		return Errorf(EINVALID, "invalid snapshot kind %q", s.Kind)
	}
	return nil
}

// SnapshotStore persists page snapshots outside the database.
type SnapshotStore interface {
	// SaveSnapshot stores a snapshot, replacing any previous one of the same kind.
	SaveSnapshot(ctx context.Context, snap *Snapshot) error

	// FindSnapshot retrieves a snapshot.
	// Returns ENOTFOUND if no snapshot of that kind exists.
	FindSnapshot(ctx context.Context, itemID string, kind SnapshotKind) (*Snapshot, error)

	// DeleteSnapshots removes all snapshots of an item. Missing snapshots are not an error.
	DeleteSnapshots(ctx context.Context, itemID string) error
}
