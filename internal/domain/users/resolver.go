package users

import (
	"context"
	"errors"
	"fmt"

	"metrology-records/internal/ports/auth"
	"metrology-records/internal/ports/capabilities"
)

var roleModules = map[Role][]capabilities.Module{
	RoleMetrologista: {capabilities.ModuleEquipment, capabilities.ModuleCertificates},
	RoleQuimico:      {capabilities.ModuleSafetySheets, capabilities.ModuleEmergency},
}

// Modules devuelve los módulos habilitados para un rol. admin => todos.
func Modules(r Role) []capabilities.Module {
	if r == RoleAdmin {
		return []capabilities.Module{
			capabilities.ModuleEquipment,
			capabilities.ModuleCertificates,
			capabilities.ModuleSafetySheets,
			capabilities.ModuleEmergency,
			capabilities.ModuleAdmin,
		}
	}
	return roleModules[r]
}

// Resolver implementa capabilities.ModuleResolver.
// Usa el rol del token si viene; si no, el tipo_usuario del perfil.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

func (r *Resolver) HasModule(ctx context.Context, claims auth.Claims, module capabilities.Module) (bool, error) {
	role, ok := ParseRole(claims.Role)
	if !ok {
		if r.repo == nil {
			return false, nil
		}
		u, err := r.repo.GetByID(ctx, claims.UserID)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("resolve role: %w", err)
		}
		role = u.Role
	}

	for _, m := range Modules(role) {
		if m == module {
			return true, nil
		}
	}
	return false, nil
}
