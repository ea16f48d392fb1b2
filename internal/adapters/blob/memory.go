package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"metrology-records/internal/ports/blobstore"
)

// MemoryStore guarda los archivos en memoria (dev, tests).
// Las URLs públicas imitan el layout de Supabase Storage.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	buckets map[string]map[string]memObject
}

type memObject struct {
	data        []byte
	contentType string
}

func NewMemoryStore(publicBaseURL string) *MemoryStore {
	if strings.TrimSpace(publicBaseURL) == "" {
		publicBaseURL = "http://localhost:8080"
	}
	return &MemoryStore{
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		buckets: make(map[string]map[string]memObject),
	}
}

func (m *MemoryStore) Upload(ctx context.Context, bucket, path string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[bucket]
	if !ok {
		return blobstore.ErrBucketNotFound
	}
	b[path] = memObject{data: data, contentType: contentType}
	return nil
}

func (m *MemoryStore) PublicURL(bucket, path string) string {
	return publicObjectURL(m.baseURL, bucket, path)
}

func (m *MemoryStore) Remove(ctx context.Context, bucket string, paths ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[bucket]
	if !ok {
		return blobstore.ErrBucketNotFound
	}
	for _, p := range paths {
		delete(b, p)
	}
	return nil
}

func (m *MemoryStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.buckets[bucket]
	return ok, nil
}

func (m *MemoryStore) CreateBucket(ctx context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket]; !ok {
		m.buckets[bucket] = make(map[string]memObject)
	}
	return nil
}

// Get devuelve el contenido de un objeto.
func (m *MemoryStore) Get(bucket, path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.buckets[bucket][path]
	if !ok {
		return nil, false
	}
	return bytes.Clone(o.data), true
}

// Count devuelve cuántos objetos hay en un bucket.
func (m *MemoryStore) Count(bucket string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.buckets[bucket])
}

func publicObjectURL(baseURL, bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", baseURL, bucket, strings.TrimLeft(path, "/"))
}
