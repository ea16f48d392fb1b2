package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"metrology-records/internal/domain/certnumber"

	_ "modernc.org/sqlite"
)

// KVStore es una tabla clave-valor local que reemplaza al localStorage
// del navegador (CLI / estación de trabajo sin servidor).
type KVStore struct {
	db *sql.DB
}

// Open abre (o crea) el archivo sqlite y aplica la migración.
func Open(ctx context.Context, path string) (*KVStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// un solo writer
	db.SetMaxOpenConns(1)

	s, err := NewKVStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func NewKVStore(ctx context.Context, db *sql.DB) (*KVStore, error) {
	s := &KVStore{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite kv: %w", err)
	}
	return s, nil
}

func (s *KVStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`)
	return err
}

func (s *KVStore) Close() error {
	return s.db.Close()
}

// Get devuelve nil si la clave no existe.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// certnumber.StateStore

func (s *KVStore) Load(ctx context.Context) (certnumber.State, error) {
	raw, err := s.Get(ctx, certnumber.StateKey)
	if err != nil {
		return certnumber.State{}, err
	}
	return certnumber.DecodeState(raw), nil
}

func (s *KVStore) Save(ctx context.Context, st certnumber.State) error {
	return s.Set(ctx, certnumber.StateKey, certnumber.EncodeState(st))
}

func (s *KVStore) LoadLastUsed(ctx context.Context) (string, error) {
	raw, err := s.Get(ctx, certnumber.LastUsedKey)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *KVStore) SaveLastUsed(ctx context.Context, number string) error {
	return s.Set(ctx, certnumber.LastUsedKey, []byte(number))
}
