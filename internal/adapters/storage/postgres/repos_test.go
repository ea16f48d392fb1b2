package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrology-records/internal/domain/certificates"
	"metrology-records/internal/domain/equipment"
	"metrology-records/internal/domain/safetysheets"
	"metrology-records/internal/domain/users"
)

var equipmentCols = []string{
	"id", "type", "sector", "status",
	"last_calibration", "next_calibration",
	"standard_location", "current_location", "measurement_range",
	"model", "serial_number", "manufacturer",
	"created_at", "updated_at",
}

func TestEquipmentRepo_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM equipamentos WHERE id = $1")).
		WithArgs("PAQ-404").
		WillReturnRows(sqlmock.NewRows(equipmentCols))

	_, err = NewEquipmentRepo(db).GetByID(context.Background(), "PAQ-404")
	assert.ErrorIs(t, err, equipment.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEquipmentRepo_List_BuildsFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	next := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(equipmentCols).
		AddRow("PAQ-001", "Paquímetro", "Qualidade", "available", nil, next, "", "", "0-150mm", "", "", "Mitutoyo", now, now)

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM equipamentos WHERE 1=1 AND sector = $1 AND (id ILIKE $2 OR type ILIKE $2 OR sector ILIKE $2) ORDER BY id ASC LIMIT $3 OFFSET $4",
	)).
		WithArgs("Qualidade", "%paq%", 10, 20).
		WillReturnRows(rows)

	items, err := NewEquipmentRepo(db).List(context.Background(), equipment.ListFilter{
		Sector: "Qualidade",
		Query:  "paq",
		Limit:  10,
		Offset: 20,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].LastCalibration)
	require.NotNil(t, items[0].NextCalibration)
	assert.True(t, items[0].NextCalibration.Equal(next))
	assert.Equal(t, equipment.StatusAvailable, items[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEquipmentRepo_List_IncludeUndated(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	to := time.Date(2025, 6, 14, 23, 59, 59, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("AND ((next_calibration <= $1) OR next_calibration IS NULL) ORDER BY id ASC LIMIT $2 OFFSET $3")).
		WithArgs(to, 50, 0).
		WillReturnRows(sqlmock.NewRows(equipmentCols))

	_, err = NewEquipmentRepo(db).List(context.Background(), equipment.ListFilter{CalibrationTo: &to, IncludeUndated: true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificatesRepo_Create_DuplicateNumber(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO certificados")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "certificados_number_key"})

	err = NewCertificatesRepo(db).Create(context.Background(), certificates.Certificate{
		ID:                "c1",
		EquipmentID:       "PAQ-001",
		CertificateNumber: "0100125",
	})
	assert.ErrorIs(t, err, certificates.ErrDuplicateNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificatesRepo_List_DefaultLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM certificados WHERE 1=1 AND equipment_id = $1 ORDER BY calibration_date DESC LIMIT $2")).
		WithArgs("PAQ-001", 50).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	items, err := NewCertificatesRepo(db).List(context.Background(), certificates.ListFilter{EquipmentID: "PAQ-001"})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSafetySheetsRepo_UsesKindTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	validade := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "produto", "fabricante", "numero_cas", "setor", "tipo_risco", "validade", "arquivo_url", "user_id", "criado_em"}

	// sin Limit no hay LIMIT: las estadísticas necesitan todo
	mock.ExpectQuery(regexp.QuoteMeta("FROM fispqs WHERE 1=1 AND produto ILIKE $1 AND setor = $2 ORDER BY criado_em DESC")).
		WithArgs("%etanol%", "Laboratório").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("s1", "Etanol", "Merck", "64-17-5", "Laboratório", "Inflamável", validade, "http://x/fispqs/a.pdf", "u1", validade))

	items, err := NewSafetySheetsRepo(db).List(context.Background(), safetysheets.KindFISPQ, safetysheets.ListFilter{
		Produto: "etanol",
		Setor:   "Laboratório",
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, safetysheets.KindFISPQ, items[0].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = NewSafetySheetsRepo(db).List(context.Background(), safetysheets.Kind("x; DROP TABLE fdus"), safetysheets.ListFilter{})
	assert.Error(t, err)
}

func TestUsersRepo_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE SET")).
		WithArgs("u1", "ana@lab.com", "Ana", "Silva", "metrologista", "M-10", created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewUsersRepo(db).Upsert(context.Background(), users.User{
		ID:        "u1",
		Email:     "ana@lab.com",
		Nome:      "Ana",
		Sobrenome: "Silva",
		Role:      users.RoleMetrologista,
		Matricula: "M-10",
		CreatedAt: created,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
