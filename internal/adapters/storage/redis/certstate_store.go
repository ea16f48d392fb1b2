package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"metrology-records/internal/domain/certnumber"
)

const maxUpdateRetries = 10

var ErrConflict = errors.New("certificate state changed concurrently")

// CertStateStore guarda el estado como JSON en Redis, compartido entre
// varias instancias. Update usa WATCH/MULTI para serializar escrituras.
type CertStateStore struct {
	client *goredis.Client
	prefix string
}

func NewCertStateStore(addr, password string, db int, prefix string) *CertStateStore {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewCertStateStoreWithClient(rdb, prefix)
}

func NewCertStateStoreWithClient(client *goredis.Client, prefix string) *CertStateStore {
	return &CertStateStore{client: client, prefix: prefix}
}

func (s *CertStateStore) key(k string) string {
	return s.prefix + k
}

func (s *CertStateStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *CertStateStore) Close() error {
	return s.client.Close()
}

func (s *CertStateStore) get(ctx context.Context, c goredis.Cmdable, k string) ([]byte, error) {
	raw, err := c.Get(ctx, s.key(k)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", k, err)
	}
	return raw, nil
}

func (s *CertStateStore) Load(ctx context.Context) (certnumber.State, error) {
	raw, err := s.get(ctx, s.client, certnumber.StateKey)
	if err != nil {
		return certnumber.State{}, err
	}
	return certnumber.DecodeState(raw), nil
}

func (s *CertStateStore) Save(ctx context.Context, st certnumber.State) error {
	if err := s.client.Set(ctx, s.key(certnumber.StateKey), certnumber.EncodeState(st), 0).Err(); err != nil {
		return fmt.Errorf("redis set state: %w", err)
	}
	return nil
}

func (s *CertStateStore) LoadLastUsed(ctx context.Context) (string, error) {
	raw, err := s.get(ctx, s.client, certnumber.LastUsedKey)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *CertStateStore) SaveLastUsed(ctx context.Context, number string) error {
	if err := s.client.Set(ctx, s.key(certnumber.LastUsedKey), number, 0).Err(); err != nil {
		return fmt.Errorf("redis set last used: %w", err)
	}
	return nil
}

// Update reintenta si otra instancia escribió entre el GET y el EXEC.
func (s *CertStateStore) Update(ctx context.Context, fn func(certnumber.State) (certnumber.State, error)) (certnumber.State, error) {
	key := s.key(certnumber.StateKey)

	for i := 0; i < maxUpdateRetries; i++ {
		var next certnumber.State

		err := s.client.Watch(ctx, func(tx *goredis.Tx) error {
			raw, err := s.get(ctx, tx, certnumber.StateKey)
			if err != nil {
				return err
			}

			next, err = fn(certnumber.DecodeState(raw))
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
				p.Set(ctx, key, certnumber.EncodeState(next), 0)
				return nil
			})
			return err
		}, key)

		if err == nil {
			return next, nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return certnumber.State{}, err
	}

	return certnumber.State{}, ErrConflict
}
