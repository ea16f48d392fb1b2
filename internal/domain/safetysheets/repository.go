package safetysheets

import "context"

// Repository guarda fichas; kind selecciona la colección (fdus / fispqs).
type Repository interface {
	Create(ctx context.Context, s Sheet) error
	GetByID(ctx context.Context, kind Kind, id string) (Sheet, error)
	Update(ctx context.Context, s Sheet) error
	Delete(ctx context.Context, kind Kind, id string) error
	// List ordena por criado_em desc.
	List(ctx context.Context, kind Kind, filter ListFilter) ([]Sheet, error)
}
