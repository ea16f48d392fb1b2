package validity

import "time"

// ExpiringWindowDays es la ventana en días para considerar un documento "por vencer".
const ExpiringWindowDays = 30

// Status de un registro con fecha de validade.
// @Enum valid, expiring, expired
type Status string

const (
	StatusValid    Status = "valid"
	StatusExpiring Status = "expiring"
	StatusExpired  Status = "expired"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusValid, StatusExpiring, StatusExpired:
		return true
	default:
		return false
	}
}

// Label en pt-BR, tal como la muestran los reportes.
func (s Status) Label() string {
	switch s {
	case StatusValid:
		return "Válido"
	case StatusExpiring:
		return "Expirando"
	default:
		return "Expirado"
	}
}

// Of calcula el estado comparando solo fechas (sin hora).
// Fecha cero => expired.
func Of(expiration, now time.Time) Status {
	if expiration.IsZero() {
		return StatusExpired
	}

	today := Day(now)
	exp := Day(expiration.In(now.Location()))

	if exp.Before(today) {
		return StatusExpired
	}
	if !exp.After(today.AddDate(0, 0, ExpiringWindowDays)) {
		return StatusExpiring
	}
	return StatusValid
}

// Day trunca a medianoche en la zona de t.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Range devuelve los límites de fecha que corresponden a un estado,
// para filtrar en el repo. nil = sin límite.
func Range(s Status, now time.Time) (from, to *time.Time) {
	today := Day(now)
	limit := today.AddDate(0, 0, ExpiringWindowDays)
	beforeToday := today.Add(-time.Nanosecond)
	afterLimit := limit.AddDate(0, 0, 1)

	switch s {
	case StatusExpired:
		return nil, &beforeToday
	case StatusExpiring:
		end := afterLimit.Add(-time.Nanosecond)
		return &today, &end
	case StatusValid:
		return &afterLimit, nil
	default:
		return nil, nil
	}
}

// Narrow intersecta un rango explícito [from, to] con el rango del estado.
// Estado vacío => el rango queda igual.
func Narrow(s Status, now time.Time, from, to *time.Time) (*time.Time, *time.Time) {
	if s == "" {
		return from, to
	}
	sf, st := Range(s, now)
	if sf != nil && (from == nil || sf.After(*from)) {
		from = sf
	}
	if st != nil && (to == nil || st.Before(*to)) {
		to = st
	}
	return from, to
}

// Counts acumula totales por estado para las estadísticas.
type Counts struct {
	Total    int
	Expiring int
	Expired  int
}

func (c *Counts) Add(expiration, now time.Time) {
	c.Total++
	switch Of(expiration, now) {
	case StatusExpiring:
		c.Expiring++
	case StatusExpired:
		c.Expired++
	}
}

// ParseDate acepta YYYY-MM-DD o RFC3339.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
