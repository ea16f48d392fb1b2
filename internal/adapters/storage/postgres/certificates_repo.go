package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"metrology-records/internal/domain/certificates"
)

type CertificatesRepo struct {
	db *sql.DB
}

func NewCertificatesRepo(db *sql.DB) *CertificatesRepo {
	return &CertificatesRepo{db: db}
}

const certificateColumns = `
	id, equipment_id, equipment_name, certificate_number,
	issue_date, calibration_date, expiration_date,
	file_name, file_path, file_url,
	sector, created_by, created_at`

func (r *CertificatesRepo) Create(ctx context.Context, c certificates.Certificate) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO certificados (`+certificateColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		c.ID,
		c.EquipmentID,
		c.EquipmentName,
		c.CertificateNumber,
		c.IssueDate,
		c.CalibrationDate,
		c.ExpirationDate,
		c.FileName,
		c.FilePath,
		c.FileURL,
		c.Sector,
		c.CreatedBy,
		c.CreatedAt,
	)
	if isUniqueViolation(err, "certificados_number_key") {
		return certificates.ErrDuplicateNumber
	}
	return err
}

func (r *CertificatesRepo) GetByID(ctx context.Context, id string) (certificates.Certificate, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return certificates.Certificate{}, certificates.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+certificateColumns+` FROM certificados WHERE id = $1`, id)
	c, err := scanCertificate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return certificates.Certificate{}, certificates.ErrNotFound
	}
	return c, err
}

func (r *CertificatesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM certificados WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return certificates.ErrNotFound
	}
	return nil
}

func (r *CertificatesRepo) List(ctx context.Context, f certificates.ListFilter) ([]certificates.Certificate, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + certificateColumns + ` FROM certificados WHERE 1=1`)

	args := []any{}
	argN := 1

	if f.EquipmentID != "" {
		sb.WriteString(fmt.Sprintf(" AND equipment_id = $%d", argN))
		args = append(args, f.EquipmentID)
		argN++
	}
	if f.ExpirationFrom != nil {
		sb.WriteString(fmt.Sprintf(" AND expiration_date >= $%d", argN))
		args = append(args, *f.ExpirationFrom)
		argN++
	}
	if f.ExpirationTo != nil {
		sb.WriteString(fmt.Sprintf(" AND expiration_date <= $%d", argN))
		args = append(args, *f.ExpirationTo)
		argN++
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		sb.WriteString(fmt.Sprintf(" AND (certificate_number ILIKE $%d OR equipment_name ILIKE $%d)", argN, argN))
		args = append(args, "%"+q+"%")
		argN++
	}

	sb.WriteString(" ORDER BY calibration_date DESC")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, clampLimit(f.Limit, 50, 200))

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]certificates.Certificate, 0)
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCertificate(s scanner) (certificates.Certificate, error) {
	var c certificates.Certificate
	err := s.Scan(
		&c.ID,
		&c.EquipmentID,
		&c.EquipmentName,
		&c.CertificateNumber,
		&c.IssueDate,
		&c.CalibrationDate,
		&c.ExpirationDate,
		&c.FileName,
		&c.FilePath,
		&c.FileURL,
		&c.Sector,
		&c.CreatedBy,
		&c.CreatedAt,
	)
	return c, err
}
