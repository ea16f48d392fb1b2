package users

import "time"

// Role es el tipo_usuario del perfil.
// @Enum admin, metrologista, quimico
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleMetrologista Role = "metrologista"
	RoleQuimico      Role = "quimico"
)

// ParseRole normaliza (trim + lower) y acepta "administrador" como admin.
func ParseRole(s string) (Role, bool) {
	r := Role(normalize(s))
	if r == "administrador" {
		r = RoleAdmin
	}
	switch r {
	case RoleAdmin, RoleMetrologista, RoleQuimico:
		return r, true
	default:
		return "", false
	}
}

// User es el perfil de la tabla usuarios; ID es el id del proveedor de auth.
type User struct {
	ID        string
	Email     string
	Nome      string
	Sobrenome string
	Role      Role
	Matricula string
	CreatedAt time.Time
}

type ListFilter struct {
	Role  Role
	Query string // email o nome, ILIKE
	Limit int
}
