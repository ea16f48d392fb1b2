package emergency

import "context"

type Repository interface {
	Create(ctx context.Context, s Sheet) error
	GetByID(ctx context.Context, id string) (Sheet, error)
	Update(ctx context.Context, s Sheet) error
	Delete(ctx context.Context, id string) error
	// List ordena por criado_em desc.
	List(ctx context.Context, filter ListFilter) ([]Sheet, error)
}
