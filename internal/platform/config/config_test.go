package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadWith(env(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, AuthDev, cfg.Auth.Mode)
	assert.Equal(t, "memory", cfg.CertState.Backend)
	assert.Equal(t, "memory", cfg.Blob.Backend)
	assert.Equal(t, time.Minute, cfg.RoleCacheTTL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	cfg, err := LoadWith(env(map[string]string{
		"CONFIG_FILE":       "testdata/config.yaml",
		"SUPABASE_ANON_KEY": "anon-from-env",
		"LOG_LEVEL":         "warn",
		"REDIS_DB":          "3",
	}))
	require.NoError(t, err)

	assert.Equal(t, "metrologia-qa", cfg.App)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "s3", cfg.Blob.Backend)
	assert.Equal(t, "sa-east-1", cfg.Blob.Region)
	assert.Equal(t, AuthGoTrue, cfg.Auth.Mode)
	assert.Equal(t, "anon-from-env", cfg.Auth.AnonKey, "env overrides file")
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "postgres", cfg.CertState.Backend)
	assert.Equal(t, 3, cfg.CertState.RedisDB)
	assert.Equal(t, 2.0, cfg.Public.RateLimitRPS)
	assert.Equal(t, 30*time.Second, cfg.RoleCacheTTL)
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want error
	}{
		{"gotrue without key", map[string]string{"AUTH_MODE": "gotrue", "SUPABASE_URL": "https://x.supabase.co"}, ErrInvalidAuth},
		{"jwt without secret", map[string]string{"AUTH_MODE": "JWT"}, ErrInvalidAuth},
		{"unknown auth", map[string]string{"AUTH_MODE": "ldap"}, ErrInvalidAuth},
		{"postgres state without dsn", map[string]string{"CERT_STATE_BACKEND": "postgres"}, ErrInvalidCertState},
		{"unknown state", map[string]string{"CERT_STATE_BACKEND": "etcd"}, ErrInvalidCertState},
	}
	for _, c := range cases {
		_, err := LoadWith(env(c.env))
		assert.Truef(t, errors.Is(err, c.want), "%s: expected %v, got %v", c.name, c.want, err)
	}
}

func TestLoad_BadNumbers(t *testing.T) {
	_, err := LoadWith(env(map[string]string{"REDIS_DB": "zero"}))
	assert.Error(t, err)

	_, err = LoadWith(env(map[string]string{"ROLE_CACHE_TTL": "soon"}))
	assert.Error(t, err)

	_, err = LoadWith(env(map[string]string{"CONFIG_FILE": "testdata/missing.yaml"}))
	assert.Error(t, err)
}
