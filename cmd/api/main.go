package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"metrology-records/internal/adapters/auth/gotrue"
	"metrology-records/internal/adapters/auth/jwtlocal"
	"metrology-records/internal/adapters/blob"
	mem "metrology-records/internal/adapters/storage/memory"
	pg "metrology-records/internal/adapters/storage/postgres"
	"metrology-records/internal/adapters/storage/redis"
	"metrology-records/internal/adapters/storage/sqlite"
	"metrology-records/internal/domain/certnumber"
	"metrology-records/internal/platform/config"
	"metrology-records/internal/platform/logger"
	"metrology-records/internal/ports/auth"
	"metrology-records/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.App,
	})

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func run(cfg config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.DBDSN != "" {
		opened, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer opened.Close()
		db = opened

		if cfg.AutoMigrate {
			if err := pg.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("schema migrated", nil)
		}
	}

	blobs, err := blob.New(ctx, blob.Config{
		Backend:       blob.Backend(cfg.Blob.Backend),
		Region:        cfg.Blob.Region,
		Endpoint:      cfg.Blob.Endpoint,
		AccessKey:     cfg.Blob.AccessKey,
		SecretKey:     cfg.Blob.SecretKey,
		ProjectID:     cfg.Blob.ProjectID,
		PublicBaseURL: cfg.Blob.PublicBaseURL,
	})
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}

	state, closeState, err := newStateStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeState()

	verifier, err := newVerifier(cfg)
	if err != nil {
		return err
	}

	r := router.NewRouter(router.Options{
		Logger:               log,
		AuthVerifier:         verifier,
		DB:                   db,
		BlobStore:            blobs,
		StateStore:           state,
		RoleCacheTTL:         cfg.RoleCacheTTL,
		PublicRateLimitRPS:   cfg.Public.RateLimitRPS,
		PublicRateLimitBurst: cfg.Public.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":       cfg.Addr(),
			"auth":       string(cfg.Auth.Mode),
			"blob":       cfg.Blob.Backend,
			"cert_state": cfg.CertState.Backend,
			"postgres":   db != nil,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down", nil)
	return srv.Shutdown(shutdownCtx)
}

func newStateStore(ctx context.Context, cfg config.Config, db *sql.DB) (certnumber.StateStore, func(), error) {
	noop := func() {}

	switch cfg.CertState.Backend {
	case "sqlite":
		s, err := sqlite.Open(ctx, cfg.CertState.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite state: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	case "redis":
		s := redis.NewCertStateStore(cfg.CertState.RedisAddr, cfg.CertState.RedisPassword, cfg.CertState.RedisDB, cfg.CertState.RedisPrefix)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, noop, fmt.Errorf("ping redis: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		if db == nil {
			return nil, noop, errors.New("postgres certificate state needs DB_DSN")
		}
		return pg.NewCertStateStore(db), noop, nil
	default:
		return mem.NewCertStateStore(), noop, nil
	}
}

func newVerifier(cfg config.Config) (auth.AuthVerifier, error) {
	switch cfg.Auth.Mode {
	case config.AuthGoTrue:
		c, err := gotrue.NewClient(gotrue.Config{
			BaseURL: cfg.Auth.SupabaseURL,
			APIKey:  cfg.Auth.AnonKey,
		})
		if err != nil {
			return nil, fmt.Errorf("gotrue client: %w", err)
		}
		return gotrue.NewVerifier(c), nil
	case config.AuthJWT:
		v, err := jwtlocal.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTAudience)
		if err != nil {
			return nil, fmt.Errorf("jwt verifier: %w", err)
		}
		return v, nil
	default:
		// modo dev: X-Debug-User-ID / X-Debug-User-Role
		return nil, nil
	}
}
