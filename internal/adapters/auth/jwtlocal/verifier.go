package jwtlocal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"metrology-records/internal/ports/auth"
)

var (
	ErrNoSecret     = errors.New("jwt secret is empty")
	ErrInvalidToken = errors.New("invalid token")
)

// supabaseClaims es el layout de los access tokens de Supabase.
// El claim "role" de Supabase es "authenticated"; el rol de la app va en app_metadata.
type supabaseClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// Verifier valida tokens HS256 localmente con el JWT secret del proyecto,
// sin ir a GoTrue en cada request.
type Verifier struct {
	secret   []byte
	audience string
}

func NewVerifier(secret, audience string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoSecret
	}
	return &Verifier{secret: []byte(secret), audience: strings.TrimSpace(audience)}, nil
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var c supabaseClaims
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || strings.TrimSpace(c.Subject) == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	return auth.Claims{
		UserID: strings.TrimSpace(c.Subject),
		Email:  strings.TrimSpace(c.Email),
		Role:   metadataRole(c.AppMetadata),
	}, nil
}

// metadataRole solo lee app_metadata: user_metadata lo edita el propio usuario.
func metadataRole(m map[string]any) string {
	for _, k := range []string{"tipo_usuario", "role"} {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.ToLower(strings.TrimSpace(s))
		}
	}
	return ""
}
