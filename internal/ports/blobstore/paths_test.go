package blobstore

import (
	"testing"
	"time"
)

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"Relatório Técnico.pdf":    "Relatorio_Tecnico.pdf",
		"certificado (1).PDF":      "certificado__1_.PDF",
		"  ação/../çedilha.png  ":  "cedilha.png",
		"C:\\docs\\Balança nº2.pdf": "Balanca_n_2.pdf",
		"":                         "arquivo",
		"***":                      "arquivo",
	}

	for in, want := range cases {
		if got := SanitizeFileName(in); got != want {
			t.Fatalf("SanitizeFileName(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestObjectPath(t *testing.T) {
	now := time.UnixMilli(1718409600123)

	got := ObjectPath("user-1", "certificados", "Relatório.pdf", now)
	want := "user-1/certificados/1718409600123_Relatorio.pdf"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}

	if got := ObjectPath("user-1", "", "a.pdf", now); got != "user-1/1718409600123_a.pdf" {
		t.Fatalf("unexpected path without dir: %s", got)
	}
}

func TestPathFromPublicURL(t *testing.T) {
	url := "https://proj.supabase.co/storage/v1/object/public/fdus/user-1/fdus/1700_ficha.pdf?t=123"
	if got := PathFromPublicURL("fdus", url); got != "user-1/fdus/1700_ficha.pdf" {
		t.Fatalf("unexpected path: %q", got)
	}
	if got := PathFromPublicURL("fispqs", url); got != "" {
		t.Fatalf("expected empty path for other bucket, got %q", got)
	}
	if got := PathFromPublicURL("fdus", ""); got != "" {
		t.Fatalf("expected empty path for empty url, got %q", got)
	}
}
