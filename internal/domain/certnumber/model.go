package certnumber

import (
	"errors"
	"time"
)

// Claves fijas del almacenamiento clave-valor (mismo layout que el navegador).
const (
	StateKey    = "certificateNumbers"
	LastUsedKey = "lastCertificateNumber"
)

const (
	SemesterFirst  = "01" // enero a junio
	SemesterSecond = "02" // julio a diciembre

	// MaxSequence es el mayor secuencial representable en NNN.
	MaxSequence = 999
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidNumber    = errors.New("certificate number must match SSNNNAA")
	ErrSequenceOverflow = errors.New("certificate sequence exceeds 999 for the current semester")
)

// State es el estado persistido del secuencial.
// El estado vacío significa "nunca inicializado".
type State struct {
	LastSequentialNumber int    `json:"lastSequentialNumber"`
	LastSemester         string `json:"lastSemester"`
	LastYear             string `json:"lastYear"`
}

// Initialized indica si hay semestre y año registrados.
func (s State) Initialized() bool {
	return s.LastSemester != "" && s.LastYear != ""
}

// SamePeriod compara el periodo persistido con semestre/año actuales.
func (s State) SamePeriod(semester, year string) bool {
	return s.LastSemester == semester && s.LastYear == year
}

// Number es un número de certificado ya descompuesto.
type Number struct {
	Semester string
	Sequence int
	Year     string
}

func (n Number) String() string {
	return Format(n.Semester, n.Sequence, n.Year)
}

// Period devuelve semestre y año (2 dígitos) para una fecha.
func Period(t time.Time) (semester, year string) {
	return SemesterOf(t), YearOf(t)
}
