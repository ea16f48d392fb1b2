package equipment

import "context"

type Repository interface {
	Create(ctx context.Context, e Equipment) error
	GetByID(ctx context.Context, id string) (Equipment, error)
	Update(ctx context.Context, e Equipment) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]Equipment, error)
}
