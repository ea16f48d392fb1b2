package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App         string `yaml:"app"`
	Port        string `yaml:"port"`
	DBDSN       string `yaml:"db_dsn"`
	AutoMigrate bool   `yaml:"auto_migrate"`

	Log       LogConfig       `yaml:"log"`
	Blob      BlobConfig      `yaml:"blob"`
	Auth      AuthConfig      `yaml:"auth"`
	CertState CertStateConfig `yaml:"cert_state"`
	Public    PublicConfig    `yaml:"public"`

	RoleCacheTTL time.Duration `yaml:"role_cache_ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type BlobConfig struct {
	Backend       string `yaml:"backend"` // memory | s3 | gcs
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	ProjectID     string `yaml:"project_id"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type AuthMode string

const (
	AuthDev    AuthMode = "dev"
	AuthGoTrue AuthMode = "gotrue"
	AuthJWT    AuthMode = "jwt"
)

type AuthConfig struct {
	Mode        AuthMode `yaml:"mode"`
	SupabaseURL string   `yaml:"supabase_url"`
	AnonKey     string   `yaml:"anon_key"`
	JWTSecret   string   `yaml:"jwt_secret"`
	JWTAudience string   `yaml:"jwt_audience"`
}

type CertStateConfig struct {
	Backend       string `yaml:"backend"` // memory | sqlite | redis | postgres
	SQLitePath    string `yaml:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

type PublicConfig struct {
	RateLimitRPS   float64 `yaml:"rate_limit_rps"` // <= 0 desactiva
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

// Default es la configuración de dev: todo en memoria, auth por header.
func Default() Config {
	return Config{
		App:  "metrology-records",
		Port: "8080",
		Log:  LogConfig{Level: "info", Format: "text"},
		Blob: BlobConfig{Backend: "memory"},
		Auth: AuthConfig{Mode: AuthDev, JWTAudience: "authenticated"},
		CertState: CertStateConfig{
			Backend:     "memory",
			SQLitePath:  "certificate-numbers.db",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "metrology",
		},
		Public:       PublicConfig{RateLimitRPS: 5, RateLimitBurst: 20},
		RoleCacheTTL: time.Minute,
	}
}

// Load arma la config: defaults, luego el YAML de CONFIG_FILE (si hay),
// luego variables de entorno.
func Load() (Config, error) {
	return LoadWith(os.LookupEnv)
}

// LoadWith permite inyectar el lookup de env (tests).
func LoadWith(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path, ok := lookup("CONFIG_FILE"); ok && strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(strings.TrimSpace(path))
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	cfg.Auth.Mode = AuthMode(strings.ToLower(strings.TrimSpace(string(cfg.Auth.Mode))))
	cfg.CertState.Backend = strings.ToLower(strings.TrimSpace(cfg.CertState.Backend))
	cfg.Blob.Backend = strings.ToLower(strings.TrimSpace(cfg.Blob.Backend))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("APP_NAME", &cfg.App)
	str("PORT", &cfg.Port)
	str("DB_DSN", &cfg.DBDSN)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	str("BLOB_BACKEND", &cfg.Blob.Backend)
	str("BLOB_REGION", &cfg.Blob.Region)
	str("BLOB_ENDPOINT", &cfg.Blob.Endpoint)
	str("BLOB_ACCESS_KEY", &cfg.Blob.AccessKey)
	str("BLOB_SECRET_KEY", &cfg.Blob.SecretKey)
	str("BLOB_PROJECT_ID", &cfg.Blob.ProjectID)
	str("BLOB_PUBLIC_BASE_URL", &cfg.Blob.PublicBaseURL)

	var mode string
	str("AUTH_MODE", &mode)
	if mode != "" {
		cfg.Auth.Mode = AuthMode(mode)
	}
	str("SUPABASE_URL", &cfg.Auth.SupabaseURL)
	str("SUPABASE_ANON_KEY", &cfg.Auth.AnonKey)
	str("SUPABASE_JWT_SECRET", &cfg.Auth.JWTSecret)
	str("AUTH_JWT_AUDIENCE", &cfg.Auth.JWTAudience)

	str("CERT_STATE_BACKEND", &cfg.CertState.Backend)
	str("SQLITE_PATH", &cfg.CertState.SQLitePath)
	str("REDIS_ADDR", &cfg.CertState.RedisAddr)
	str("REDIS_PASSWORD", &cfg.CertState.RedisPassword)
	str("REDIS_PREFIX", &cfg.CertState.RedisPrefix)

	if v, ok := lookup("REDIS_DB"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.CertState.RedisDB = n
	}
	if v, ok := lookup("AUTO_MIGRATE"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("AUTO_MIGRATE: %w", err)
		}
		cfg.AutoMigrate = b
	}
	if v, ok := lookup("PUBLIC_RATE_LIMIT_RPS"); ok && strings.TrimSpace(v) != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("PUBLIC_RATE_LIMIT_RPS: %w", err)
		}
		cfg.Public.RateLimitRPS = f
	}
	if v, ok := lookup("PUBLIC_RATE_LIMIT_BURST"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("PUBLIC_RATE_LIMIT_BURST: %w", err)
		}
		cfg.Public.RateLimitBurst = n
	}
	if v, ok := lookup("ROLE_CACHE_TTL"); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("ROLE_CACHE_TTL: %w", err)
		}
		cfg.RoleCacheTTL = d
	}
	return nil
}

var (
	ErrInvalidAuth      = errors.New("invalid auth config")
	ErrInvalidCertState = errors.New("invalid certificate state config")
)

func (c Config) Validate() error {
	switch c.Auth.Mode {
	case AuthDev, "":
	case AuthGoTrue:
		if c.Auth.SupabaseURL == "" || c.Auth.AnonKey == "" {
			return fmt.Errorf("%w: gotrue needs SUPABASE_URL and SUPABASE_ANON_KEY", ErrInvalidAuth)
		}
	case AuthJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("%w: jwt needs SUPABASE_JWT_SECRET", ErrInvalidAuth)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidAuth, c.Auth.Mode)
	}

	switch c.CertState.Backend {
	case "", "memory":
	case "sqlite":
		if c.CertState.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite needs SQLITE_PATH", ErrInvalidCertState)
		}
	case "redis":
		if c.CertState.RedisAddr == "" {
			return fmt.Errorf("%w: redis needs REDIS_ADDR", ErrInvalidCertState)
		}
	case "postgres":
		if c.DBDSN == "" {
			return fmt.Errorf("%w: postgres needs DB_DSN", ErrInvalidCertState)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidCertState, c.CertState.Backend)
	}
	return nil
}

// Addr es la dirección de escucha (":8080").
func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}
