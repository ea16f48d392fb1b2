//go:build !gcp

package blob

import (
	"context"
	"fmt"

	"metrology-records/internal/ports/blobstore"
)

func newGCSStore(ctx context.Context, cfg Config) (blobstore.Store, error) {
	return nil, fmt.Errorf("GCS storage is not enabled in this build (use -tags gcp)")
}
