package certnumber

import "context"

// StateStore persiste el estado del secuencial.
// Load devuelve State{} (sin error) cuando todavía no hay nada guardado.
type StateStore interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error

	// Slot suelto con el último número usado tal cual fue escrito.
	LoadLastUsed(ctx context.Context) (string, error)
	SaveLastUsed(ctx context.Context, number string) error
}

// Updater lo implementan los stores que pueden hacer read-modify-write
// atómico (fila con lock en Postgres, WATCH en Redis). Si fn devuelve error
// no se escribe nada.
type Updater interface {
	Update(ctx context.Context, fn func(State) (State, error)) (State, error)
}
