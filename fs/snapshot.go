// Package fs provides file-based storage for page snapshots.
package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/landitus/bookmarks"
	"gopkg.in/yaml.v3"
)

// Ensure SnapshotStore implements bookmarks.SnapshotStore at compile time.
var _ bookmarks.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore keeps snapshots on local disk, one directory per item:
//
//	<baseDir>/<itemID>/page.md         Markdown with YAML frontmatter
//	<baseDir>/<itemID>/page.html       raw HTML
//	<baseDir>/<itemID>/page.html.yaml  metadata of the HTML snapshot
//
// Files are written to a temporary name and renamed into place, so readers
// never see a partial snapshot.
type SnapshotStore struct {
	baseDir string
}

// NewSnapshotStore creates a store rooted at baseDir.
func NewSnapshotStore(baseDir string) *SnapshotStore {
	return &SnapshotStore{baseDir: baseDir}
}

// frontmatter is the metadata stored alongside a snapshot body.
type frontmatter struct {
	Source string    `yaml:"source"`
	Title  string    `yaml:"title,omitempty"`
	Item   string    `yaml:"item"`
	Saved  time.Time `yaml:"saved"`
}

const frontmatterDelim = "---\n"

// SaveSnapshot writes snap, replacing any previous snapshot of the same kind.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snap *bookmarks.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	dir, err := s.itemDir(snap.ItemID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	fm := frontmatter{
		Source: snap.URL,
		Title:  snap.Title,
		Item:   snap.ItemID,
		Saved:  snap.CreatedAt.UTC(),
	}

	switch snap.Kind {
	case bookmarks.SnapshotMarkdown:
		content, err := formatMarkdown(fm, snap.Body)
		if err != nil {
			return err
		}
		return writeFileAtomic(filepath.Join(dir, "page.md"), content)
	default:
		meta, err := yaml.Marshal(fm)
		if err != nil {
			return err
		}
		if err := writeFileAtomic(filepath.Join(dir, "page.html"), []byte(snap.Body)); err != nil {
			return err
		}
		return writeFileAtomic(filepath.Join(dir, "page.html.yaml"), meta)
	}
}

// FindSnapshot reads a snapshot. Returns ENOTFOUND if none exists.
func (s *SnapshotStore) FindSnapshot(ctx context.Context, itemID string, kind bookmarks.SnapshotKind) (*bookmarks.Snapshot, error) {
	dir, err := s.itemDir(itemID)
	if err != nil {
		return nil, err
	}

	var (
		fm   frontmatter
		body string
	)
	switch kind {
	case bookmarks.SnapshotMarkdown:
		data, err := readFile(filepath.Join(dir, "page.md"))
		if err != nil {
			return nil, err
		}
		if fm, body, err = parseMarkdown(data); err != nil {
			return nil, fmt.Errorf("parse snapshot %s: %w", itemID, err)
		}
	case bookmarks.SnapshotHTML:
		data, err := readFile(filepath.Join(dir, "page.html"))
		if err != nil {
			return nil, err
		}
		body = string(data)
		if meta, err := readFile(filepath.Join(dir, "page.html.yaml")); err == nil {
			if err := yaml.Unmarshal(meta, &fm); err != nil {
				return nil, fmt.Errorf("parse snapshot metadata %s: %w", itemID, err)
			}
		} else if bookmarks.ErrorCode(err) != bookmarks.ENOTFOUND {
			return nil, err
		}
	default:
		return nil, bookmarks.Errorf(bookmarks.EINVALID, "invalid snapshot kind %q", kind)
	}

	return &bookmarks.Snapshot{
		ItemID:    itemID,
		Kind:      kind,
		URL:       fm.Source,
		Title:     fm.Title,
		Body:      body,
		CreatedAt: fm.Saved,
	}, nil
}

// DeleteSnapshots removes the item's snapshot directory.
func (s *SnapshotStore) DeleteSnapshots(ctx context.Context, itemID string) error {
	dir, err := s.itemDir(itemID)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// itemDir returns the directory of an item, rejecting IDs that would escape baseDir.
func (s *SnapshotStore) itemDir(itemID string) (string, error) {
	if itemID == "" || itemID == "." || itemID == ".." || strings.ContainsAny(itemID, `/\`) {
		return "", bookmarks.Errorf(bookmarks.EINVALID, "invalid item ID %q", itemID)
	}
	return filepath.Join(s.baseDir, itemID), nil
}

// formatMarkdown renders a Markdown body with YAML frontmatter.
func formatMarkdown(fm frontmatter, body string) ([]byte, error) {
	meta, err := yaml.Marshal(fm)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	b.WriteString(frontmatterDelim)
	b.Write(meta)
	b.WriteString(frontmatterDelim)
	b.WriteString("\n")
	b.WriteString(body)
	return b.Bytes(), nil
}

// parseMarkdown splits a file written by formatMarkdown into its frontmatter and body.
func parseMarkdown(data []byte) (frontmatter, string, error) {
	var fm frontmatter
	s := string(data)
	if !strings.HasPrefix(s, frontmatterDelim) {
		return fm, "", errors.New("missing frontmatter")
	}
	rest := strings.TrimPrefix(s, frontmatterDelim)
	end := strings.Index(rest, "\n"+frontmatterDelim)
	if end < 0 {
		return fm, "", errors.New("unterminated frontmatter")
	}
	if err := yaml.Unmarshal([]byte(rest[:end+1]), &fm); err != nil {
		return fm, "", err
	}
	body := rest[end+1+len(frontmatterDelim):]
	return fm, strings.TrimPrefix(body, "\n"), nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, bookmarks.Errorf(bookmarks.ENOTFOUND, "snapshot not found")
	}
	return data, err
}

// writeFileAtomic writes data to a temporary file in the same directory and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
