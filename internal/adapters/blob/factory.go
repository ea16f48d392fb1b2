package blob

import (
	"context"
	"fmt"
	"strings"

	"metrology-records/internal/ports/blobstore"
)

// Backend del almacenamiento de archivos.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendS3     Backend = "s3"
	BackendGCS    Backend = "gcs"
)

type Config struct {
	Backend       Backend
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	ProjectID     string
	PublicBaseURL string
}

// New crea el store según cfg.Backend (default memory).
func New(ctx context.Context, cfg Config) (blobstore.Store, error) {
	switch Backend(strings.ToLower(string(cfg.Backend))) {
	case "", BackendMemory:
		return NewMemoryStore(cfg.PublicBaseURL), nil
	case BackendS3:
		return NewS3Store(ctx, S3Config{
			Region:        cfg.Region,
			Endpoint:      cfg.Endpoint,
			AccessKey:     cfg.AccessKey,
			SecretKey:     cfg.SecretKey,
			PublicBaseURL: cfg.PublicBaseURL,
		})
	case BackendGCS:
		return newGCSStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported blob backend: %s", cfg.Backend)
	}
}
