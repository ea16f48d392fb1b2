package equipment

import (
	"time"

	"metrology-records/internal/domain/validity"
)

// Status operativo del equipo.
// @Enum available, maintenance, calibration, discarded
type Status string

const (
	StatusAvailable   Status = "available"
	StatusMaintenance Status = "maintenance"
	StatusCalibration Status = "calibration"
	StatusDiscarded   Status = "discarded"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusMaintenance, StatusCalibration, StatusDiscarded:
		return true
	default:
		return false
	}
}

// Equipment es un instrumento de medición controlado por metrología.
// ID es el código visible (p.ej. PAQ-001), no un uuid.
type Equipment struct {
	ID     string
	Type   string
	Sector string
	Status Status

	LastCalibration *time.Time
	NextCalibration *time.Time

	StandardLocation string
	CurrentLocation  string
	MeasurementRange string

	Model        string
	SerialNumber string
	Manufacturer string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CalibrationStatus deriva el estado de calibración de NextCalibration.
// Sin fecha => expired.
func (e Equipment) CalibrationStatus(now time.Time) validity.Status {
	if e.NextCalibration == nil {
		return validity.StatusExpired
	}
	return validity.Of(*e.NextCalibration, now)
}

type ListFilter struct {
	Type   string
	Sector string
	Status Status

	// Query busca substring en código, tipo y setor.
	Query string

	// Rango sobre next_calibration (lo arma el service desde CalibrationStatus).
	CalibrationFrom *time.Time
	CalibrationTo   *time.Time
	// Incluye equipos sin fecha de calibración (se consideran vencidos).
	IncludeUndated bool

	Limit  int
	Offset int
}
