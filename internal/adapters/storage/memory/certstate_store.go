package memory

import (
	"context"
	"sync"

	"metrology-records/internal/domain/certnumber"
)

// CertStateStore guarda el estado del secuencial como bytes crudos bajo
// las mismas claves que usaba el navegador.
type CertStateStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewCertStateStore() *CertStateStore {
	return &CertStateStore{data: make(map[string][]byte)}
}

func (s *CertStateStore) Load(ctx context.Context) (certnumber.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return certnumber.DecodeState(s.data[certnumber.StateKey]), nil
}

func (s *CertStateStore) Save(ctx context.Context, st certnumber.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[certnumber.StateKey] = certnumber.EncodeState(st)
	return nil
}

func (s *CertStateStore) LoadLastUsed(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.data[certnumber.LastUsedKey]), nil
}

func (s *CertStateStore) SaveLastUsed(ctx context.Context, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[certnumber.LastUsedKey] = []byte(number)
	return nil
}

// Update hace read-modify-write bajo el mismo lock.
func (s *CertStateStore) Update(ctx context.Context, fn func(certnumber.State) (certnumber.State, error)) (certnumber.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(certnumber.DecodeState(s.data[certnumber.StateKey]))
	if err != nil {
		return certnumber.State{}, err
	}
	s.data[certnumber.StateKey] = certnumber.EncodeState(next)
	return next, nil
}

// SetRaw escribe bytes tal cual (p.ej. estado corrupto importado).
func (s *CertStateStore) SetRaw(key string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = raw
}

// Raw devuelve los bytes guardados bajo key.
func (s *CertStateStore) Raw(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key]
}
