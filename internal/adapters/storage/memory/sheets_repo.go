package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"metrology-records/internal/domain/emergency"
	"metrology-records/internal/domain/safetysheets"
)

func containsFold(s, sub string) bool {
	return sub == "" || strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func equalIfSet(v, want string) bool {
	return want == "" || v == want
}

// ---- FDU / FISPQ ----

type safetySheetRepo struct {
	mu   sync.RWMutex
	byID map[string]safetysheets.Sheet
}

// NewSafetySheetRepo guarda ambos tipos; cada consulta filtra por Kind.
func NewSafetySheetRepo() safetysheets.Repository {
	return &safetySheetRepo{byID: make(map[string]safetysheets.Sheet)}
}

func (r *safetySheetRepo) Create(ctx context.Context, s safetysheets.Sheet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == "" || !s.Kind.IsValid() {
		return errors.New("sheet id and kind required")
	}
	if _, exists := r.byID[s.ID]; exists {
		return errors.New("sheet already exists")
	}
	r.byID[s.ID] = s
	return nil
}

func (r *safetySheetRepo) GetByID(ctx context.Context, kind safetysheets.Kind, id string) (safetysheets.Sheet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok || s.Kind != kind {
		return safetysheets.Sheet{}, safetysheets.ErrNotFound
	}
	return s, nil
}

func (r *safetySheetRepo) Update(ctx context.Context, s safetysheets.Sheet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[s.ID]
	if !ok || cur.Kind != s.Kind {
		return safetysheets.ErrNotFound
	}
	r.byID[s.ID] = s
	return nil
}

func (r *safetySheetRepo) Delete(ctx context.Context, kind safetysheets.Kind, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[id]
	if !ok || cur.Kind != kind {
		return safetysheets.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *safetySheetRepo) List(ctx context.Context, kind safetysheets.Kind, f safetysheets.ListFilter) ([]safetysheets.Sheet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]safetysheets.Sheet, 0)
	for _, s := range r.byID {
		if s.Kind != kind {
			continue
		}
		if !containsFold(s.Produto, f.Produto) || !containsFold(s.Fabricante, f.Fabricante) {
			continue
		}
		if !equalIfSet(s.NumeroCas, f.NumeroCas) || !equalIfSet(s.Setor, f.Setor) || !equalIfSet(s.TipoRisco, f.TipoRisco) {
			continue
		}
		if !inRange(s.Validade, f.ValidadeFrom, f.ValidadeTo) {
			continue
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CriadoEm.After(out[j].CriadoEm)
	})
	return page(out, 0, f.Limit), nil
}

// ---- Fichas de emergência ----

type emergencyRepo struct {
	mu   sync.RWMutex
	byID map[string]emergency.Sheet
}

func NewEmergencyRepo() emergency.Repository {
	return &emergencyRepo{byID: make(map[string]emergency.Sheet)}
}

func (r *emergencyRepo) Create(ctx context.Context, s emergency.Sheet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == "" {
		return errors.New("sheet id required")
	}
	if _, exists := r.byID[s.ID]; exists {
		return errors.New("sheet already exists")
	}
	r.byID[s.ID] = s
	return nil
}

func (r *emergencyRepo) GetByID(ctx context.Context, id string) (emergency.Sheet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return emergency.Sheet{}, emergency.ErrNotFound
	}
	return s, nil
}

func (r *emergencyRepo) Update(ctx context.Context, s emergency.Sheet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[s.ID]; !ok {
		return emergency.ErrNotFound
	}
	r.byID[s.ID] = s
	return nil
}

func (r *emergencyRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return emergency.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *emergencyRepo) List(ctx context.Context, f emergency.ListFilter) ([]emergency.Sheet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]emergency.Sheet, 0)
	for _, s := range r.byID {
		if !containsFold(s.Nome, f.Nome) || !containsFold(s.Produto, f.Produto) {
			continue
		}
		if !equalIfSet(s.NumeroOnu, f.NumeroOnu) || !equalIfSet(s.ClasseRisco, f.ClasseRisco) || !equalIfSet(s.Setor, f.Setor) {
			continue
		}
		if !inRange(s.Validade, f.ValidadeFrom, f.ValidadeTo) {
			continue
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CriadoEm.After(out[j].CriadoEm)
	})
	return page(out, 0, f.Limit), nil
}
