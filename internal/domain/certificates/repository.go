package certificates

import "context"

type Repository interface {
	// Create devuelve ErrDuplicateNumber si el número ya existe.
	Create(ctx context.Context, c Certificate) error
	GetByID(ctx context.Context, id string) (Certificate, error)
	Delete(ctx context.Context, id string) error
	// List ordena por calibration_date desc.
	List(ctx context.Context, filter ListFilter) ([]Certificate, error)
}
