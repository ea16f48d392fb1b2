package blobstore

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const defaultFileName = "arquivo"

// SanitizeFileName quita acentos y reemplaza todo lo que no sea
// [A-Za-z0-9._-] por '_'. "Relatório Técnico.pdf" => "Relatorio_Tecnico.pdf".
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		return defaultFileName
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}

	var b strings.Builder
	for _, r := range stripped {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := strings.Trim(b.String(), "_")
	if out == "" || strings.Trim(out, ".") == "" {
		return defaultFileName
	}
	return out
}

// ObjectPath arma <userID>/<dir>/<ms>_<nombre saneado>.
// dir vacío => <userID>/<ms>_<nombre>.
func ObjectPath(userID, dir, name string, now time.Time) string {
	file := fmt.Sprintf("%d_%s", now.UnixMilli(), SanitizeFileName(name))

	parts := make([]string, 0, 3)
	if uid := strings.Trim(strings.TrimSpace(userID), "/"); uid != "" {
		parts = append(parts, uid)
	}
	if d := strings.Trim(strings.TrimSpace(dir), "/"); d != "" {
		parts = append(parts, d)
	}
	parts = append(parts, file)
	return strings.Join(parts, "/")
}

// PathFromPublicURL recupera el path del objeto dentro del bucket a partir
// de su URL pública (ignora query string). Devuelve "" si no corresponde.
func PathFromPublicURL(bucket, publicURL string) string {
	publicURL = strings.TrimSpace(publicURL)
	if publicURL == "" || bucket == "" {
		return ""
	}

	raw := publicURL
	if u, err := url.Parse(publicURL); err == nil && u.Path != "" {
		raw = u.Path
	} else if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}

	marker := "/" + bucket + "/"
	i := strings.Index(raw, marker)
	if i < 0 {
		return ""
	}
	p := raw[i+len(marker):]
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return strings.Trim(p, "/")
}

// Put sube f al bucket (creándolo si falta) y devuelve path + URL pública.
func Put(ctx context.Context, s Store, bucket, objectPath string, f File) (Stored, error) {
	if f.Body == nil || f.Size == 0 {
		return Stored{}, ErrEmptyFile
	}

	if err := EnsureBucket(ctx, s, bucket); err != nil {
		return Stored{}, err
	}

	ct := strings.TrimSpace(f.ContentType)
	if ct == "" {
		ct = "application/octet-stream"
	}
	if err := s.Upload(ctx, bucket, objectPath, f.Body, f.Size, ct); err != nil {
		return Stored{}, fmt.Errorf("upload %s/%s: %w", bucket, objectPath, err)
	}

	return Stored{
		Bucket: bucket,
		Path:   objectPath,
		URL:    s.PublicURL(bucket, objectPath),
		Name:   f.Name,
	}, nil
}

// EnsureBucket crea el bucket si no existe.
func EnsureBucket(ctx context.Context, s Store, bucket string) error {
	ok, err := s.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if ok {
		return nil
	}
	if err := s.CreateBucket(ctx, bucket); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}
