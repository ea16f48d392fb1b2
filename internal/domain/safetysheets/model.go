package safetysheets

import (
	"time"

	"metrology-records/internal/domain/validity"
)

// Kind distingue FDU (ficha de dados de segurança) de FISPQ.
// @Enum fdu, fispq
type Kind string

const (
	KindFDU   Kind = "fdu"
	KindFISPQ Kind = "fispq"
)

func (k Kind) IsValid() bool {
	return k == KindFDU || k == KindFISPQ
}

// Collection es el nombre de tabla, bucket y ruta (fdus / fispqs).
func (k Kind) Collection() string {
	return string(k) + "s"
}

// Sheet es una ficha de seguridad de un producto químico con su PDF.
type Sheet struct {
	ID   string
	Kind Kind

	Produto    string
	Fabricante string
	NumeroCas  string
	Setor      string
	TipoRisco  string
	Validade   time.Time

	ArquivoURL string
	UserID     string
	CriadoEm   time.Time
}

func (s Sheet) Status(now time.Time) validity.Status {
	return validity.Of(s.Validade, now)
}

type ListFilter struct {
	// ILIKE
	Produto    string
	Fabricante string

	// igualdad
	NumeroCas string
	Setor     string
	TipoRisco string

	ValidadeFrom *time.Time
	ValidadeTo   *time.Time

	// 0 = sin límite
	Limit int
}

type Statistics struct {
	Total         int      `json:"total"`
	Expiring      int      `json:"expirando"`
	Expired       int      `json:"vencidas"`
	Sectors       []string `json:"setores_lista"`
	Manufacturers []string `json:"fabricantes_lista"`
}

// PublicStatistics es el subconjunto expuesto sin login.
type PublicStatistics struct {
	Total    int `json:"total"`
	Expiring int `json:"expirando"`
	Sectors  int `json:"setores"`
}
