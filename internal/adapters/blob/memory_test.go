package blob

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"metrology-records/internal/ports/blobstore"
)

func TestMemoryStore_PutAndRemove(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore("https://proj.supabase.co/")

	path := blobstore.ObjectPath("u1", "certificados", "Relatório.pdf", time.UnixMilli(1700000000000))
	st, err := blobstore.Put(ctx, m, "documentos", path, blobstore.File{
		Name:        "Relatório.pdf",
		ContentType: "application/pdf",
		Size:        3,
		Body:        strings.NewReader("pdf"),
	})
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}

	want := "https://proj.supabase.co/storage/v1/object/public/documentos/u1/certificados/1700000000000_Relatorio.pdf"
	if st.URL != want {
		t.Fatalf("expected url %s, got %s", want, st.URL)
	}
	if got := blobstore.PathFromPublicURL("documentos", st.URL); got != path {
		t.Fatalf("expected path %s from url, got %s", path, got)
	}

	if data, ok := m.Get("documentos", path); !ok || string(data) != "pdf" {
		t.Fatalf("expected stored content")
	}

	if err := m.Remove(ctx, "documentos", path); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if m.Count("documentos") != 0 {
		t.Fatalf("expected empty bucket after remove")
	}
}

func TestMemoryStore_UploadRequiresBucket(t *testing.T) {
	m := NewMemoryStore("")
	err := m.Upload(context.Background(), "missing", "a.txt", strings.NewReader("x"), 1, "text/plain")
	if !errors.Is(err, blobstore.ErrBucketNotFound) {
		t.Fatalf("expected ErrBucketNotFound, got %v", err)
	}
}

func TestPut_RejectsEmptyFile(t *testing.T) {
	m := NewMemoryStore("")
	_, err := blobstore.Put(context.Background(), m, "fdus", "u/a.pdf", blobstore.File{Name: "a.pdf"})
	if !errors.Is(err, blobstore.ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New(context.Background(), Config{Backend: "ftp"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
