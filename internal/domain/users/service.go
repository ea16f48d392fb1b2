package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"metrology-records/internal/platform/logger"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("user not found")
	ErrInvalidRole  = errors.New("role must be admin, metrologista or quimico")
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time

	onRoleChange func(userID string)
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		log:  log.With(map[string]any{"component": "users"}),
		now:  time.Now,
	}
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// OnRoleChange registra un callback que corre tras cada Upsert exitoso,
// para invalidar caches de permisos.
func (s *Service) OnRoleChange(fn func(userID string)) {
	s.onRoleChange = fn
}

type UpsertInput struct {
	ID        string
	Email     string
	Nome      string
	Sobrenome string
	Role      string
	Matricula string
}

// Upsert guarda el perfil. CreatedAt se conserva si ya existía.
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (User, error) {
	id := strings.TrimSpace(in.ID)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if id == "" || strings.TrimSpace(in.Nome) == "" {
		return User{}, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, ErrInvalidInput
	}
	role, ok := ParseRole(in.Role)
	if !ok {
		return User{}, ErrInvalidRole
	}

	u := User{
		ID:        id,
		Email:     email,
		Nome:      strings.TrimSpace(in.Nome),
		Sobrenome: strings.TrimSpace(in.Sobrenome),
		Role:      role,
		Matricula: strings.TrimSpace(in.Matricula),
		CreatedAt: s.now(),
	}

	prev, err := s.repo.GetByID(ctx, id)
	switch {
	case err == nil:
		u.CreatedAt = prev.CreatedAt
		if prev.Role != role {
			s.log.Info("user role changed", map[string]any{
				"user_id": id,
				"from":    string(prev.Role),
				"to":      string(role),
			})
		}
	case !errors.Is(err, ErrNotFound):
		return User{}, err
	}

	if err := s.repo.Upsert(ctx, u); err != nil {
		return User{}, err
	}
	if s.onRoleChange != nil {
		s.onRoleChange(id)
	}
	return u, nil
}

type ListInput struct {
	Role  string
	Query string
	Limit int
}

func (s *Service) List(ctx context.Context, in ListInput) ([]User, error) {
	f := ListFilter{Query: strings.TrimSpace(in.Query), Limit: in.Limit}
	if strings.TrimSpace(in.Role) != "" {
		r, ok := ParseRole(in.Role)
		if !ok {
			return nil, ErrInvalidRole
		}
		f.Role = r
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	return s.repo.List(ctx, f)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// WithClock reemplaza el reloj (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}
