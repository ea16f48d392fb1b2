package gotrue

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newFakeGoTrue(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" || r.Header.Get("apikey") != "anon" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"u-1","email":"ana@lab.com","app_metadata":{"tipo_usuario":"Quimico"},"user_metadata":{"role":"admin"}}`))
		case "Bearer self-admin":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"u-2","email":"rui@lab.com","app_metadata":{"provider":"email"},"user_metadata":{"tipo_usuario":"admin"}}`))
		case "Bearer broken":
			http.Error(w, "boom", http.StatusBadGateway)
		default:
			http.Error(w, `{"msg":"invalid JWT"}`, http.StatusUnauthorized)
		}
	}))
}

func TestVerifier_Verify(t *testing.T) {
	srv := newFakeGoTrue(t)
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "anon"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	v := NewVerifier(client)

	claims, err := v.Verify(context.Background(), "good")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if claims.UserID != "u-1" || claims.Email != "ana@lab.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Role != "quimico" {
		t.Fatalf("expected role from app_metadata, got %q", claims.Role)
	}

	// user_metadata no otorga rol
	claims, err = v.Verify(context.Background(), "self-admin")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if claims.Role != "" {
		t.Fatalf("expected no role from user_metadata, got %q", claims.Role)
	}

	if _, err := v.Verify(context.Background(), "expired"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := v.Verify(context.Background(), "broken"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if _, err := v.Verify(context.Background(), "  "); !errors.Is(err, ErrTokenEmpty) {
		t.Fatalf("expected ErrTokenEmpty, got %v", err)
	}
}

func TestNewClient_RequiresConfig(t *testing.T) {
	if _, err := NewClient(Config{BaseURL: "https://x.supabase.co"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
