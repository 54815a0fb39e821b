package storage

import (
	"context"
	"io"
)

// ObjectStorage is the bucket access the catalog seeder needs.
type ObjectStorage interface {
	// ListObjects streams every object under prefix. Listing errors arrive
	// as items with Err set.
	ListObjects(ctx context.Context, bucket, prefix string) <-chan ObjectInfo

	// GetObject opens a reader for an object.
	// Caller must close the returned reader.
	GetObject(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error)

	// PutObject uploads sizeBytes read from reader.
	PutObject(ctx context.Context, bucket, objectKey string, reader io.Reader, sizeBytes int64, contentType string) error
}

// ObjectInfo describes one listed object.
type ObjectInfo struct {
	Key       string
	SizeBytes int64
	Err       error
}
