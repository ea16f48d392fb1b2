package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"metrology-records/internal/domain/certificates"
)

type certificateRepo struct {
	mu       sync.RWMutex
	byID     map[string]certificates.Certificate
	byNumber map[string]string
}

func NewCertificateRepo() certificates.Repository {
	return &certificateRepo{
		byID:     make(map[string]certificates.Certificate),
		byNumber: make(map[string]string),
	}
}

func (r *certificateRepo) Create(ctx context.Context, c certificates.Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" {
		return errors.New("certificate id required")
	}
	if _, exists := r.byID[c.ID]; exists {
		return errors.New("certificate already exists")
	}
	if _, used := r.byNumber[c.CertificateNumber]; used {
		return certificates.ErrDuplicateNumber
	}

	r.byID[c.ID] = c
	r.byNumber[c.CertificateNumber] = c.ID
	return nil
}

func (r *certificateRepo) GetByID(ctx context.Context, id string) (certificates.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return certificates.Certificate{}, certificates.ErrNotFound
	}
	return c, nil
}

func (r *certificateRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return certificates.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byNumber, c.CertificateNumber)
	return nil
}

func (r *certificateRepo) List(ctx context.Context, f certificates.ListFilter) ([]certificates.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]certificates.Certificate, 0)
	for _, c := range r.byID {
		if f.EquipmentID != "" && c.EquipmentID != f.EquipmentID {
			continue
		}
		if !inRange(c.ExpirationDate, f.ExpirationFrom, f.ExpirationTo) {
			continue
		}
		if q := strings.TrimSpace(f.Query); q != "" {
			hay := strings.ToLower(c.CertificateNumber + " " + c.EquipmentName)
			if !strings.Contains(hay, strings.ToLower(q)) {
				continue
			}
		}
		out = append(out, c)
	}

	// Orden por calibration_date desc (más reciente primero)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CalibrationDate.After(out[j].CalibrationDate)
	})

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	return page(out, 0, limit), nil
}
