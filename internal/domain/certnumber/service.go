package certnumber

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"metrology-records/internal/platform/logger"
)

// Service genera números de certificado SSNNNAA.
// El secuencial solo avanza con Increment, que el llamador invoca una vez
// por certificado efectivamente guardado.
type Service struct {
	store StateStore
	log   logger.Logger
	now   func() time.Time

	mu sync.Mutex
}

func NewService(store StateStore, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store: store,
		log:   log.With(map[string]any{"component": "certnumber"}),
		now:   time.Now,
	}
}

// WithClock reemplaza el reloj (tests, CLI con --date).
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Generate devuelve el candidato para el próximo certificado.
// Reinicia a 1 si cambió semestre/año o nunca se inicializó; nunca incrementa.
// Persiste el periodo aunque el candidato no llegue a emitirse.
func (s *Service) Generate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generate(ctx)
}

func (s *Service) generate(ctx context.Context) (string, error) {
	semester, year := Period(s.now())

	next, err := s.mutate(ctx, func(st State) (State, error) {
		switch {
		case !st.SamePeriod(semester, year):
			if st.Initialized() {
				s.log.Info("certificate period rollover", map[string]any{
					"from_semester": st.LastSemester,
					"from_year":     st.LastYear,
					"to_semester":   semester,
					"to_year":       year,
				})
			}
			st.LastSequentialNumber = 1
		case st.LastSequentialNumber <= 0:
			st.LastSequentialNumber = 1
		}

		if st.LastSequentialNumber > MaxSequence {
			return State{}, ErrSequenceOverflow
		}

		st.LastSemester = semester
		st.LastYear = year
		return st, nil
	})
	if err != nil {
		return "", err
	}

	return Format(next.LastSemester, next.LastSequentialNumber, next.LastYear), nil
}

// Last devuelve el número persistido sin mutar estado.
// Sin estado previo delega en Generate (que inicializa).
func (s *Service) Last(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load certificate sequence: %w", err)
	}
	if !st.Initialized() {
		return s.generate(ctx)
	}

	seq := st.LastSequentialNumber
	if seq <= 0 {
		seq = 1
	}
	if seq > MaxSequence {
		return "", ErrSequenceOverflow
	}
	return Format(st.LastSemester, seq, st.LastYear), nil
}

// LastUsed devuelve el slot suelto (último número escrito a mano o emitido).
func (s *Service) LastUsed(ctx context.Context) (string, error) {
	v, err := s.store.LoadLastUsed(ctx)
	if err != nil {
		return "", fmt.Errorf("load last used certificate number: %w", err)
	}
	return v, nil
}

// Increment avanza el secuencial en exactamente 1. No revisa el periodo.
func (s *Service) Increment(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.mutate(ctx, func(st State) (State, error) {
		if st.LastSequentialNumber < 0 {
			st.LastSequentialNumber = 0
		}
		st.LastSequentialNumber++
		return st, nil
	})
	return err
}

// Override registra un número escrito por el usuario.
// Si tiene forma SSNNNAA el estado lo adopta, así la siguiente generación
// parte de ese valor; si no, solo queda en el slot suelto.
func (s *Service) Override(ctx context.Context, number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SaveLastUsed(ctx, number); err != nil {
		return fmt.Errorf("save last used certificate number: %w", err)
	}

	n, err := Parse(number)
	if err != nil {
		s.log.Warn("manual certificate number does not match SSNNNAA", map[string]any{
			"number": number,
		})
		return nil
	}

	_, err = s.mutate(ctx, func(State) (State, error) {
		return State{
			LastSequentialNumber: n.Sequence,
			LastSemester:         n.Semester,
			LastYear:             n.Year,
		}, nil
	})
	return err
}

// RecordEmitted guarda el número emitido en el slot suelto. Best-effort.
func (s *Service) RecordEmitted(ctx context.Context, number string) {
	if err := s.store.SaveLastUsed(ctx, number); err != nil {
		s.log.Warn("could not record emitted certificate number", map[string]any{
			"number": number,
			"error":  err.Error(),
		})
	}
}

func (s *Service) mutate(ctx context.Context, fn func(State) (State, error)) (State, error) {
	if u, ok := s.store.(Updater); ok {
		st, err := u.Update(ctx, fn)
		if err != nil {
			return State{}, wrapStoreErr(err)
		}
		return st, nil
	}

	st, err := s.store.Load(ctx)
	if err != nil {
		return State{}, fmt.Errorf("load certificate sequence: %w", err)
	}
	next, err := fn(st)
	if err != nil {
		return State{}, err
	}
	if err := s.store.Save(ctx, next); err != nil {
		return State{}, fmt.Errorf("save certificate sequence: %w", err)
	}
	return next, nil
}

func wrapStoreErr(err error) error {
	if errors.Is(err, ErrSequenceOverflow) {
		return ErrSequenceOverflow
	}
	return fmt.Errorf("update certificate sequence: %w", err)
}
