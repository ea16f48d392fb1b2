package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"metrology-records/internal/domain/equipment"
)

type equipmentRepo struct {
	mu   sync.RWMutex
	byID map[string]equipment.Equipment
}

func NewEquipmentRepo() equipment.Repository {
	return &equipmentRepo{
		byID: make(map[string]equipment.Equipment),
	}
}

func (r *equipmentRepo) Create(ctx context.Context, e equipment.Equipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" {
		return errors.New("equipment id required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return equipment.ErrAlreadyExists
	}
	r.byID[e.ID] = e
	return nil
}

func (r *equipmentRepo) Update(ctx context.Context, e equipment.Equipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[e.ID]; !exists {
		return equipment.ErrNotFound
	}
	r.byID[e.ID] = e
	return nil
}

func (r *equipmentRepo) GetByID(ctx context.Context, id string) (equipment.Equipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return equipment.Equipment{}, equipment.ErrNotFound
	}
	return e, nil
}

func (r *equipmentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return equipment.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *equipmentRepo) List(ctx context.Context, f equipment.ListFilter) ([]equipment.Equipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]equipment.Equipment, 0)
	for _, e := range r.byID {
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if f.Sector != "" && e.Sector != f.Sector {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if q := strings.ToLower(f.Query); q != "" {
			hay := strings.ToLower(e.ID + " " + e.Type + " " + e.Sector)
			if !strings.Contains(hay, q) {
				continue
			}
		}

		if f.CalibrationFrom != nil || f.CalibrationTo != nil {
			if e.NextCalibration == nil {
				if !f.IncludeUndated {
					continue
				}
			} else if !inRange(*e.NextCalibration, f.CalibrationFrom, f.CalibrationTo) {
				continue
			}
		}

		out = append(out, e)
	}

	// Orden por código asc
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})

	return page(out, f.Offset, f.Limit), nil
}
