package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"prepboard/internal/common/storage"
)

const csvExt = ".csv"

// Source lists and opens company CSV files.
type Source interface {
	// List returns file keys in a stable order.
	List(ctx context.Context) ([]string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// CompanyName derives the company from a file key: its base name without .csv.
func CompanyName(key string) string {
	base := path.Base(filepath.ToSlash(key))
	return strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
}

func isCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), csvExt)
}

// DirSource reads CSV files from a local directory (not recursive).
type DirSource struct {
	Dir string
}

func (s DirSource) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s failed: %w", s.Dir, err)
	}
	var keys []string
	for _, entry := range entries {
		if entry.IsDir() || !isCSV(entry.Name()) {
			continue
		}
		keys = append(keys, entry.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

func (s DirSource) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.Dir, key))
}

// BucketSource reads CSV objects under a prefix of an object storage bucket.
type BucketSource struct {
	Storage storage.ObjectStorage
	Bucket  string
	Prefix  string
}

func (s BucketSource) List(ctx context.Context) ([]string, error) {
	if s.Storage == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}
	// stops the lister when we return early
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var keys []string
	for obj := range s.Storage.ListObjects(ctx, s.Bucket, s.Prefix) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if isCSV(obj.Key) {
			keys = append(keys, obj.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s BucketSource) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.Storage.GetObject(ctx, s.Bucket, key)
}
