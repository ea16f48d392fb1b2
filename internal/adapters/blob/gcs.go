//go:build gcp

package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"metrology-records/internal/ports/blobstore"
)

// GCSStore implementa blobstore.Store sobre Google Cloud Storage.
type GCSStore struct {
	client    *storage.Client
	projectID string
	baseURL   string
}

type GCSConfig struct {
	ProjectID     string // requerido para CreateBucket
	PublicBaseURL string // vacío => https://storage.googleapis.com
}

// NewGCSStore usa Application Default Credentials.
func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	return &GCSStore{client: client, projectID: cfg.ProjectID, baseURL: base}, nil
}

func (s *GCSStore) Upload(ctx context.Context, bucket, path string, body io.Reader, size int64, contentType string) error {
	w := s.client.Bucket(bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = fmt.Sprintf("max-age=%d", blobstore.CacheControlSeconds)

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close failed: %w", err)
	}
	return nil
}

func (s *GCSStore) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, bucket, strings.TrimLeft(path, "/"))
}

func (s *GCSStore) Remove(ctx context.Context, bucket string, paths ...string) error {
	for _, p := range paths {
		err := s.client.Bucket(bucket).Object(p).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("gcs delete failed for %s: %w", p, err)
		}
	}
	return nil
}

func (s *GCSStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := s.client.Bucket(bucket).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrBucketNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("gcs attrs error: %w", err)
	}
	return true, nil
}

func (s *GCSStore) CreateBucket(ctx context.Context, bucket string) error {
	if s.projectID == "" {
		return errors.New("gcs: project id required to create buckets")
	}
	if err := s.client.Bucket(bucket).Create(ctx, s.projectID, nil); err != nil {
		return fmt.Errorf("gcs create bucket: %w", err)
	}
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
