package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"metrology-records/internal/domain/equipment"
)

type EquipmentRepo struct {
	db *sql.DB
}

func NewEquipmentRepo(db *sql.DB) *EquipmentRepo {
	return &EquipmentRepo{db: db}
}

const equipmentColumns = `
	id, type, sector, status,
	last_calibration, next_calibration,
	standard_location, current_location, measurement_range,
	model, serial_number, manufacturer,
	created_at, updated_at`

func (r *EquipmentRepo) Create(ctx context.Context, e equipment.Equipment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO equipamentos (`+equipmentColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		e.ID,
		e.Type,
		e.Sector,
		string(e.Status),
		toNullTime(e.LastCalibration),
		toNullTime(e.NextCalibration),
		e.StandardLocation,
		e.CurrentLocation,
		e.MeasurementRange,
		e.Model,
		e.SerialNumber,
		e.Manufacturer,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if isUniqueViolation(err, "") {
		return equipment.ErrAlreadyExists
	}
	return err
}

func (r *EquipmentRepo) Update(ctx context.Context, e equipment.Equipment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE equipamentos
		SET
			sector = $2,
			status = $3,
			last_calibration = $4,
			next_calibration = $5,
			standard_location = $6,
			current_location = $7,
			measurement_range = $8,
			model = $9,
			serial_number = $10,
			manufacturer = $11,
			updated_at = $12
		WHERE id = $1
	`,
		e.ID,
		e.Sector,
		string(e.Status),
		toNullTime(e.LastCalibration),
		toNullTime(e.NextCalibration),
		e.StandardLocation,
		e.CurrentLocation,
		e.MeasurementRange,
		e.Model,
		e.SerialNumber,
		e.Manufacturer,
		e.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return equipment.ErrNotFound
	}
	return nil
}

func (r *EquipmentRepo) GetByID(ctx context.Context, id string) (equipment.Equipment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return equipment.Equipment{}, equipment.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+equipmentColumns+` FROM equipamentos WHERE id = $1`, id)
	e, err := scanEquipment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return equipment.Equipment{}, equipment.ErrNotFound
	}
	return e, err
}

func (r *EquipmentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM equipamentos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return equipment.ErrNotFound
	}
	return nil
}

func (r *EquipmentRepo) List(ctx context.Context, f equipment.ListFilter) ([]equipment.Equipment, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + equipmentColumns + ` FROM equipamentos WHERE 1=1`)

	args := []any{}
	argN := 1

	if f.Type != "" {
		sb.WriteString(fmt.Sprintf(" AND type = $%d", argN))
		args = append(args, f.Type)
		argN++
	}
	if f.Sector != "" {
		sb.WriteString(fmt.Sprintf(" AND sector = $%d", argN))
		args = append(args, f.Sector)
		argN++
	}
	if f.Status != "" {
		sb.WriteString(fmt.Sprintf(" AND status = $%d", argN))
		args = append(args, string(f.Status))
		argN++
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		sb.WriteString(fmt.Sprintf(" AND (id ILIKE $%d OR type ILIKE $%d OR sector ILIKE $%d)", argN, argN, argN))
		args = append(args, "%"+q+"%")
		argN++
	}

	// rango sobre next_calibration; IncludeUndated suma los NULL
	if f.CalibrationFrom != nil || f.CalibrationTo != nil {
		conds := []string{}
		if f.CalibrationFrom != nil {
			conds = append(conds, fmt.Sprintf("next_calibration >= $%d", argN))
			args = append(args, *f.CalibrationFrom)
			argN++
		}
		if f.CalibrationTo != nil {
			conds = append(conds, fmt.Sprintf("next_calibration <= $%d", argN))
			args = append(args, *f.CalibrationTo)
			argN++
		}
		cond := strings.Join(conds, " AND ")
		if f.IncludeUndated {
			cond = "(" + cond + ") OR next_calibration IS NULL"
		}
		sb.WriteString(" AND (" + cond + ")")
	}

	sb.WriteString(" ORDER BY id ASC")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argN, argN+1))
	args = append(args, clampLimit(f.Limit, 50, 200), max(f.Offset, 0))

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]equipment.Equipment, 0)
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEquipment(s scanner) (equipment.Equipment, error) {
	var e equipment.Equipment
	var status string
	var last, next sql.NullTime
	if err := s.Scan(
		&e.ID,
		&e.Type,
		&e.Sector,
		&status,
		&last,
		&next,
		&e.StandardLocation,
		&e.CurrentLocation,
		&e.MeasurementRange,
		&e.Model,
		&e.SerialNumber,
		&e.Manufacturer,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return equipment.Equipment{}, err
	}
	e.Status = equipment.Status(status)
	e.LastCalibration = fromNullTime(last)
	e.NextCalibration = fromNullTime(next)
	return e, nil
}
