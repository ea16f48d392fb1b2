package equipment

import (
	"context"
	"errors"
	"strings"
	"time"

	"metrology-records/internal/domain/validity"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("equipment not found")
	ErrAlreadyExists = errors.New("equipment already exists")
	ErrUnknownType   = errors.New("unknown equipment type")
	ErrInvalidCode   = errors.New("invalid equipment code")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 200
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	ID               string
	Type             string
	Sector           string
	Status           Status
	LastCalibration  *time.Time
	NextCalibration  *time.Time
	StandardLocation string
	CurrentLocation  string
	MeasurementRange string
	Model            string
	SerialNumber     string
	Manufacturer     string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Equipment, error) {
	code := strings.ToUpper(strings.TrimSpace(in.ID))
	typ := strings.TrimSpace(in.Type)
	sector := strings.TrimSpace(in.Sector)

	if code == "" || typ == "" || sector == "" {
		return Equipment{}, ErrInvalidInput
	}
	if err := ValidateCode(typ, code); err != nil {
		return Equipment{}, err
	}

	status := in.Status
	if status == "" {
		status = StatusAvailable
	}
	if !status.IsValid() {
		return Equipment{}, ErrInvalidInput
	}
	if in.LastCalibration != nil && in.NextCalibration != nil && in.NextCalibration.Before(*in.LastCalibration) {
		return Equipment{}, ErrInvalidInput
	}

	now := s.now()
	e := Equipment{
		ID:               code,
		Type:             typ,
		Sector:           sector,
		Status:           status,
		LastCalibration:  in.LastCalibration,
		NextCalibration:  in.NextCalibration,
		StandardLocation: strings.TrimSpace(in.StandardLocation),
		CurrentLocation:  strings.TrimSpace(in.CurrentLocation),
		MeasurementRange: strings.TrimSpace(in.MeasurementRange),
		Model:            strings.TrimSpace(in.Model),
		SerialNumber:     strings.TrimSpace(in.SerialNumber),
		Manufacturer:     strings.TrimSpace(in.Manufacturer),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return Equipment{}, err
	}
	return e, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Equipment, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" {
		return Equipment{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateInput usa punteros: nil = no tocar.
type UpdateInput struct {
	Sector           *string
	Status           *Status
	LastCalibration  *time.Time
	NextCalibration  *time.Time
	StandardLocation *string
	CurrentLocation  *string
	MeasurementRange *string
	Model            *string
	SerialNumber     *string
	Manufacturer     *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Equipment, error) {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return Equipment{}, err
	}

	if in.Sector != nil {
		v := strings.TrimSpace(*in.Sector)
		if v == "" {
			return Equipment{}, ErrInvalidInput
		}
		e.Sector = v
	}
	if in.Status != nil {
		if !in.Status.IsValid() {
			return Equipment{}, ErrInvalidInput
		}
		e.Status = *in.Status
	}
	if in.LastCalibration != nil {
		e.LastCalibration = in.LastCalibration
	}
	if in.NextCalibration != nil {
		e.NextCalibration = in.NextCalibration
	}
	if e.LastCalibration != nil && e.NextCalibration != nil && e.NextCalibration.Before(*e.LastCalibration) {
		return Equipment{}, ErrInvalidInput
	}

	setTrimmed(&e.StandardLocation, in.StandardLocation)
	setTrimmed(&e.CurrentLocation, in.CurrentLocation)
	setTrimmed(&e.MeasurementRange, in.MeasurementRange)
	setTrimmed(&e.Model, in.Model)
	setTrimmed(&e.SerialNumber, in.SerialNumber)
	setTrimmed(&e.Manufacturer, in.Manufacturer)

	e.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, e); err != nil {
		return Equipment{}, err
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

type ListInput struct {
	Type              string
	Sector            string
	Status            Status
	Query             string
	CalibrationStatus validity.Status
	Page              int // 1-based
	PageSize          int
}

func (s *Service) List(ctx context.Context, in ListInput) ([]Equipment, error) {
	if in.Status != "" && !in.Status.IsValid() {
		return nil, ErrInvalidInput
	}
	if in.CalibrationStatus != "" && !in.CalibrationStatus.IsValid() {
		return nil, ErrInvalidInput
	}

	size := in.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	page := in.Page
	if page <= 0 {
		page = 1
	}

	f := ListFilter{
		Type:   strings.TrimSpace(in.Type),
		Sector: strings.TrimSpace(in.Sector),
		Status: in.Status,
		Query:  strings.TrimSpace(in.Query),
		Limit:  size,
		Offset: (page - 1) * size,
	}
	if in.CalibrationStatus != "" {
		f.CalibrationFrom, f.CalibrationTo = validity.Range(in.CalibrationStatus, s.now())
		f.IncludeUndated = in.CalibrationStatus == validity.StatusExpired
	}

	return s.repo.List(ctx, f)
}

// Describe devuelve lo que un certificado necesita del equipo.
func (s *Service) Describe(ctx context.Context, id string) (name, sector string, err error) {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	name = e.Type
	if e.Model != "" {
		name += " " + e.Model
	}
	return e.ID + " - " + name, e.Sector, nil
}

// RecordCalibration actualiza las fechas tras emitir un certificado.
func (s *Service) RecordCalibration(ctx context.Context, id string, calibratedAt, expiresAt time.Time) error {
	last, next := calibratedAt, expiresAt
	_, err := s.Update(ctx, id, UpdateInput{
		LastCalibration: &last,
		NextCalibration: &next,
	})
	return err
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// WithClock reemplaza el reloj (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}
