package blobstore

import (
	"context"
	"errors"
	"io"
)

var (
	ErrEmptyFile      = errors.New("file is empty")
	ErrBucketNotFound = errors.New("bucket not found")
	ErrObjectNotFound = errors.New("object not found")
)

// CacheControlSeconds es el max-age con el que se suben los archivos.
const CacheControlSeconds = 3600

// Store es el almacenamiento de archivos (buckets + paths, URLs públicas).
type Store interface {
	Upload(ctx context.Context, bucket, path string, body io.Reader, size int64, contentType string) error
	PublicURL(bucket, path string) string
	Remove(ctx context.Context, bucket string, paths ...string) error
	BucketExists(ctx context.Context, bucket string) (bool, error)
	CreateBucket(ctx context.Context, bucket string) error
}

// File es un archivo recibido del cliente, listo para subir.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Stored describe un archivo ya subido.
type Stored struct {
	Bucket string
	Path   string
	URL    string
	Name   string
}
