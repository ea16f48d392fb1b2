package capabilities

import (
	"context"

	"metrology-records/internal/ports/auth"
)

// Module es un área funcional de la aplicación habilitada por rol.
type Module string

const (
	ModuleEquipment    Module = "equipment"
	ModuleCertificates Module = "certificates"
	ModuleSafetySheets Module = "safety_sheets"
	ModuleEmergency    Module = "emergency_sheets"
	ModuleAdmin        Module = "admin"
)

// ModuleResolver decide si el usuario autenticado puede usar un módulo.
type ModuleResolver interface {
	HasModule(ctx context.Context, claims auth.Claims, module Module) (bool, error)
}

// AllowAll habilita todo (dev sin usuarios cargados).
type AllowAll struct{}

func (AllowAll) HasModule(context.Context, auth.Claims, Module) (bool, error) {
	return true, nil
}
