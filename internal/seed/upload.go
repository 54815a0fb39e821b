package seed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"prepboard/internal/common/storage"
	"prepboard/pkg/utils/logger"

	"go.uber.org/zap"
)

const csvContentType = "text/csv"

// Upload copies every file of source into bucket under prefix, keeping base
// names so a later BucketSource run derives the same company names.
func Upload(ctx context.Context, source Source, dst storage.ObjectStorage, bucket, prefix string) (int, error) {
	if dst == nil {
		return 0, fmt.Errorf("object storage is not configured")
	}
	if bucket == "" {
		return 0, fmt.Errorf("bucket is required")
	}
	keys, err := source.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sources failed: %w", err)
	}

	uploaded := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return uploaded, err
		}
		objectKey := prefix + path.Base(key)
		if err := uploadOne(ctx, source, dst, bucket, key, objectKey); err != nil {
			return uploaded, fmt.Errorf("%s: %w", key, err)
		}
		uploaded++
		logger.Info(ctx, "uploaded company list", zap.String("file", key), zap.String("object", objectKey))
	}
	return uploaded, nil
}

func uploadOne(ctx context.Context, source Source, dst storage.ObjectStorage, bucket, key, objectKey string) error {
	reader, err := source.Open(ctx, key)
	if err != nil {
		return fmt.Errorf("open failed: %w", err)
	}
	defer reader.Close()

	// company lists are small; buffering gives minio an exact size
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read failed: %w", err)
	}
	return dst.PutObject(ctx, bucket, objectKey, bytes.NewReader(data), int64(len(data)), csvContentType)
}
