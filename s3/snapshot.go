// Package s3 provides a bookmarks.SnapshotStore on Amazon S3 or an
// S3-compatible object store.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/landitus/bookmarks"
)

// Object metadata keys. S3 lower-cases user metadata keys.
const (
	metaSource = "source"
	metaTitle  = "title"
	metaSaved  = "saved"
)

// Config holds S3 connection settings. Empty values fall back to the
// standard AWS configuration and credential chain.
type Config struct {
	Bucket string
	Prefix string
	Region string

	// Endpoint overrides the S3 endpoint, for S3-compatible providers.
	Endpoint string

	// UsePathStyle forces path-style addressing.
	UsePathStyle bool
}

// API is the subset of the S3 client used by SnapshotStore.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

var _ API = (*s3.Client)(nil)

// Ensure SnapshotStore implements bookmarks.SnapshotStore at compile time.
var _ bookmarks.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore stores each snapshot as one object at
// <prefix>/<itemID>/page.html or <prefix>/<itemID>/page.md. The source URL,
// title and save time travel as object metadata.
type SnapshotStore struct {
	client API
	bucket string
	prefix string
}

// Open loads the AWS configuration and creates a store for cfg.Bucket.
func Open(ctx context.Context, cfg Config) (*SnapshotStore, error) {
	if cfg.Bucket == "" {
		return nil, bookmarks.Errorf(bookmarks.EINVALID, "S3 bucket required")
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewSnapshotStore(client, cfg.Bucket, cfg.Prefix), nil
}

// NewSnapshotStore creates a store using an existing client.
func NewSnapshotStore(client API, bucket, prefix string) *SnapshotStore {
	return &SnapshotStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// SaveSnapshot uploads snap, replacing any previous snapshot of the same kind.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snap *bookmarks.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	contentType := "text/markdown; charset=utf-8"
	if snap.Kind == bookmarks.SnapshotHTML {
		contentType = "text/html; charset=utf-8"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(snap.ItemID, snap.Kind)),
		Body:        strings.NewReader(snap.Body),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			metaSource: snap.URL,
			metaTitle:  asciiTitle(snap.Title),
			metaSaved:  snap.CreatedAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("put snapshot %s: %w", snap.ItemID, err)
	}
	return nil
}

// FindSnapshot downloads a snapshot. Returns ENOTFOUND if none exists.
func (s *SnapshotStore) FindSnapshot(ctx context.Context, itemID string, kind bookmarks.SnapshotKind) (*bookmarks.Snapshot, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(itemID, kind)),
	})
	if isNotFound(err) {
		return nil, bookmarks.Errorf(bookmarks.ENOTFOUND, "snapshot not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", itemID, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}

	snap := &bookmarks.Snapshot{
		ItemID: itemID,
		Kind:   kind,
		URL:    out.Metadata[metaSource],
		Title:  out.Metadata[metaTitle],
		Body:   string(body),
	}
	if saved, err := time.Parse(time.RFC3339, out.Metadata[metaSaved]); err == nil {
		snap.CreatedAt = saved
	}
	return snap, nil
}

// DeleteSnapshots removes every snapshot kind of an item in one request.
func (s *SnapshotStore) DeleteSnapshots(ctx context.Context, itemID string) error {
	_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &s3types.Delete{
			Objects: []s3types.ObjectIdentifier{
				{Key: aws.String(s.key(itemID, bookmarks.SnapshotHTML))},
				{Key: aws.String(s.key(itemID, bookmarks.SnapshotMarkdown))},
			},
			Quiet: aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("delete snapshots %s: %w", itemID, err)
	}
	return nil
}

// key returns the object key of a snapshot.
func (s *SnapshotStore) key(itemID string, kind bookmarks.SnapshotKind) string {
	name := "page.md"
	if kind == bookmarks.SnapshotHTML {
		name = "page.html"
	}
	return path.Join(s.prefix, itemID, name)
}

// isNotFound reports whether err is a 404 or NoSuchKey response.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}

	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

// asciiTitle drops characters that cannot be sent in an S3 metadata header.
func asciiTitle(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return -1
		}
		return r
	}, s)
}
