package certificates

import (
	"time"

	"metrology-records/internal/domain/validity"
)

// Certificate es un certificado de calibración emitido para un equipo.
type Certificate struct {
	ID                string
	EquipmentID       string
	EquipmentName     string
	CertificateNumber string

	IssueDate       time.Time
	CalibrationDate time.Time
	ExpirationDate  time.Time

	// Archivo opcional (PDF del laboratorio)
	FileName string
	FilePath string
	FileURL  string

	Sector    string
	CreatedBy string
	CreatedAt time.Time
}

// Status se deriva de ExpirationDate; nunca se persiste.
func (c Certificate) Status(now time.Time) validity.Status {
	return validity.Of(c.ExpirationDate, now)
}

type ListFilter struct {
	EquipmentID string

	// Query busca substring en número o nombre de equipo.
	Query string

	ExpirationFrom *time.Time
	ExpirationTo   *time.Time

	Limit int
}
