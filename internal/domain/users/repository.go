package users

import "context"

type Repository interface {
	GetByID(ctx context.Context, id string) (User, error)
	// Upsert crea o reemplaza el perfil por ID.
	Upsert(ctx context.Context, u User) error
	List(ctx context.Context, filter ListFilter) ([]User, error)
}
