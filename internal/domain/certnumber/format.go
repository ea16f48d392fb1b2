package certnumber

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// SemesterOf devuelve "01" para enero-junio y "02" para julio-diciembre.
func SemesterOf(t time.Time) string {
	if t.Month() <= time.June {
		return SemesterFirst
	}
	return SemesterSecond
}

// YearOf devuelve los últimos dos dígitos del año.
func YearOf(t time.Time) string {
	return fmt.Sprintf("%02d", t.Year()%100)
}

// Format arma SSNNNAA con el secuencial rellenado a 3 dígitos.
func Format(semester string, sequence int, year string) string {
	return fmt.Sprintf("%s%03d%s", semester, sequence, year)
}

// Parse descompone un número SSNNNAA. Solo acepta semestre 01/02 y secuencial >= 1.
func Parse(s string) (Number, error) {
	s = strings.TrimSpace(s)
	if len(s) != 7 {
		return Number{}, ErrInvalidNumber
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return Number{}, ErrInvalidNumber
		}
	}

	sem := s[0:2]
	if sem != SemesterFirst && sem != SemesterSecond {
		return Number{}, ErrInvalidNumber
	}

	seq, err := strconv.Atoi(s[2:5])
	if err != nil || seq < 1 {
		return Number{}, ErrInvalidNumber
	}

	return Number{Semester: sem, Sequence: seq, Year: s[5:7]}, nil
}

// EncodeState serializa el estado con el layout JSON fijo.
func EncodeState(s State) []byte {
	b, _ := json.Marshal(s)
	return b
}

// DecodeState nunca falla: JSON roto o campos con tipos inesperados
// (p.ej. un override manual que dejó texto en el secuencial) degradan
// al valor cero, que Generate trata como valor inicial del periodo.
func DecodeState(raw []byte) State {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return State{}
	}

	var aux struct {
		Sequence json.RawMessage `json:"lastSequentialNumber"`
		Semester json.RawMessage `json:"lastSemester"`
		Year     json.RawMessage `json:"lastYear"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return State{}
	}

	return State{
		LastSequentialNumber: decodeSequence(aux.Sequence),
		LastSemester:         decodeString(aux.Semester),
		LastYear:             decodeString(aux.Year),
	}
}

func decodeSequence(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f < 0 || f > math.MaxInt32 || f != math.Trunc(f) {
			return 0
		}
		return int(f)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}

	return 0
}

func decodeString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
