package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"metrology-records/internal/domain/certificates"
	"metrology-records/internal/domain/equipment"
	"metrology-records/internal/domain/safetysheets"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestEquipmentRepo_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewEquipmentRepo()

	seed := []equipment.Equipment{
		{ID: "PAQ-002", Type: "Paquímetro", Sector: "Qualidade", Status: equipment.StatusAvailable, NextCalibration: date(2025, 7, 1)},
		{ID: "PAQ-001", Type: "Paquímetro", Sector: "Produção", Status: equipment.StatusAvailable, NextCalibration: date(2026, 1, 1)},
		{ID: "TER-D-001", Type: "Termômetro Digital", Sector: "Qualidade", Status: equipment.StatusMaintenance},
	}
	for _, e := range seed {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("create %s: %v", e.ID, err)
		}
	}
	if err := repo.Create(ctx, seed[0]); !errors.Is(err, equipment.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	all, _ := repo.List(ctx, equipment.ListFilter{})
	if len(all) != 3 || all[0].ID != "PAQ-001" || all[2].ID != "TER-D-001" {
		t.Fatalf("expected code order, got %+v", all)
	}

	bySector, _ := repo.List(ctx, equipment.ListFilter{Sector: "Qualidade"})
	if len(bySector) != 2 {
		t.Fatalf("expected 2 in Qualidade, got %d", len(bySector))
	}

	q, _ := repo.List(ctx, equipment.ListFilter{Query: "termô"})
	if len(q) != 1 || q[0].ID != "TER-D-001" {
		t.Fatalf("expected case-insensitive query match, got %+v", q)
	}

	to := date(2025, 12, 31)
	ranged, _ := repo.List(ctx, equipment.ListFilter{CalibrationTo: to})
	if len(ranged) != 1 || ranged[0].ID != "PAQ-002" {
		t.Fatalf("expected only PAQ-002 in range, got %+v", ranged)
	}
	undated, _ := repo.List(ctx, equipment.ListFilter{CalibrationTo: to, IncludeUndated: true})
	if len(undated) != 2 {
		t.Fatalf("expected undated equipment included, got %+v", undated)
	}

	paged, _ := repo.List(ctx, equipment.ListFilter{Limit: 1, Offset: 1})
	if len(paged) != 1 || paged[0].ID != "PAQ-002" {
		t.Fatalf("unexpected page: %+v", paged)
	}
	empty, _ := repo.List(ctx, equipment.ListFilter{Limit: 10, Offset: 10})
	if len(empty) != 0 {
		t.Fatalf("expected empty page past the end")
	}
}

func TestCertificateRepo_DuplicateNumberAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewCertificateRepo()

	a := certificates.Certificate{ID: "a", EquipmentID: "PAQ-001", CertificateNumber: "0100125", CalibrationDate: *date(2025, 1, 1), ExpirationDate: *date(2026, 1, 1)}
	b := certificates.Certificate{ID: "b", EquipmentID: "PAQ-001", CertificateNumber: "0100225", CalibrationDate: *date(2025, 3, 1), ExpirationDate: *date(2026, 3, 1)}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := repo.Create(ctx, b); err != nil {
		t.Fatalf("create b: %v", err)
	}

	dup := a
	dup.ID = "c"
	if err := repo.Create(ctx, dup); !errors.Is(err, certificates.ErrDuplicateNumber) {
		t.Fatalf("expected ErrDuplicateNumber, got %v", err)
	}

	list, _ := repo.List(ctx, certificates.ListFilter{EquipmentID: "PAQ-001"})
	if len(list) != 2 || list[0].ID != "b" {
		t.Fatalf("expected most recent calibration first, got %+v", list)
	}

	// borrar libera el número
	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Create(ctx, dup); err != nil {
		t.Fatalf("expected number reusable after delete, got %v", err)
	}
}

func TestSafetySheetRepo_KindIsolation(t *testing.T) {
	ctx := context.Background()
	repo := NewSafetySheetRepo()

	_ = repo.Create(ctx, safetysheets.Sheet{ID: "1", Kind: safetysheets.KindFDU, Produto: "Acetona", CriadoEm: time.Now()})
	_ = repo.Create(ctx, safetysheets.Sheet{ID: "2", Kind: safetysheets.KindFISPQ, Produto: "Acetona", CriadoEm: time.Now()})

	fdus, _ := repo.List(ctx, safetysheets.KindFDU, safetysheets.ListFilter{Produto: "aceto"})
	if len(fdus) != 1 || fdus[0].ID != "1" {
		t.Fatalf("expected only the FDU, got %+v", fdus)
	}
	if err := repo.Delete(ctx, safetysheets.KindFDU, "2"); !errors.Is(err, safetysheets.ErrNotFound) {
		t.Fatalf("expected fispq not deletable as fdu, got %v", err)
	}
}
