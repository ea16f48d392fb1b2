package emergency

import (
	"time"

	"metrology-records/internal/domain/validity"
)

// Bucket y tabla de las fichas de emergência.
const Bucket = "fichas_emergencia"

// Sheet es una ficha de emergência para transporte de un producto.
type Sheet struct {
	ID          string
	Nome        string
	Produto     string
	NumeroOnu   string
	ClasseRisco string
	Setor       string // opcional
	Validade    time.Time
	ArquivoURL  string
	UserID      string
	CriadoEm    time.Time
}

func (s Sheet) Status(now time.Time) validity.Status {
	return validity.Of(s.Validade, now)
}

type ListFilter struct {
	Nome        string // ILIKE
	Produto     string // ILIKE
	NumeroOnu   string
	ClasseRisco string
	Setor       string

	ValidadeFrom *time.Time
	ValidadeTo   *time.Time

	Limit int // 0 = sin límite
}

type Statistics struct {
	Total         int `json:"total"`
	Sectors       int `json:"setores"`
	Expiring      int `json:"expirando"`
	Expired       int `json:"vencidas"`
	HazardClasses int `json:"classes_risco"`
}
