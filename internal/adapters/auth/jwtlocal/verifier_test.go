package jwtlocal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func sign(t *testing.T, method jwt.SigningMethod, key any, c supabaseClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, c).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func claimsFor(sub string, exp time.Time) supabaseClaims {
	return supabaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email:        "ana@lab.com",
		AppMetadata:  map[string]any{"tipo_usuario": "Metrologista"},
		UserMetadata: map[string]any{"tipo_usuario": "admin"},
	}
}

func TestVerifier_Verify(t *testing.T) {
	v, err := NewVerifier(testSecret, "authenticated")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	tok := sign(t, jwt.SigningMethodHS256, []byte(testSecret), claimsFor("u-1", time.Now().Add(time.Hour)))
	claims, err := v.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if claims.UserID != "u-1" || claims.Email != "ana@lab.com" || claims.Role != "metrologista" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifier_Rejects(t *testing.T) {
	v, _ := NewVerifier(testSecret, "authenticated")
	ctx := context.Background()

	cases := map[string]string{
		"expired":      sign(t, jwt.SigningMethodHS256, []byte(testSecret), claimsFor("u-1", time.Now().Add(-time.Hour))),
		"wrong secret": sign(t, jwt.SigningMethodHS256, []byte("another-secret-another-secret-1234"), claimsFor("u-1", time.Now().Add(time.Hour))),
		"wrong alg":    sign(t, jwt.SigningMethodHS512, []byte(testSecret), claimsFor("u-1", time.Now().Add(time.Hour))),
		"no subject":   sign(t, jwt.SigningMethodHS256, []byte(testSecret), claimsFor("", time.Now().Add(time.Hour))),
		"garbage":      "not-a-jwt",
	}
	for name, tok := range cases {
		if _, err := v.Verify(ctx, tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}

	other, _ := NewVerifier(testSecret, "service_role")
	tok := sign(t, jwt.SigningMethodHS256, []byte(testSecret), claimsFor("u-1", time.Now().Add(time.Hour)))
	if _, err := other.Verify(ctx, tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected audience mismatch rejected, got %v", err)
	}
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	if _, err := NewVerifier(" ", ""); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
}
