//go:build gcp

package blob

import (
	"context"

	"metrology-records/internal/ports/blobstore"
)

func newGCSStore(ctx context.Context, cfg Config) (blobstore.Store, error) {
	return NewGCSStore(ctx, GCSConfig{
		ProjectID:     cfg.ProjectID,
		PublicBaseURL: cfg.PublicBaseURL,
	})
}
