package certificates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"metrology-records/internal/domain/validity"
	"metrology-records/internal/platform/logger"
	"metrology-records/internal/ports/blobstore"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("certificate not found")
	ErrDuplicateNumber   = errors.New("certificate number already used")
	ErrEquipmentNotFound = errors.New("equipment not found")

	// ErrSequenceNotAdvanced: el certificado quedó guardado pero el contador no avanzó.
	ErrSequenceNotAdvanced = errors.New("certificate saved but sequence was not advanced")
)

const (
	DefaultBucket = "documentos"
	fileDir       = "certificados"
)

// NumberGenerator es el generador SSNNNAA (certnumber.Service).
type NumberGenerator interface {
	Generate(ctx context.Context) (string, error)
	Override(ctx context.Context, number string) error
	Increment(ctx context.Context) error
	RecordEmitted(ctx context.Context, number string)
}

// EquipmentLookup evita importar equipment desde acá.
type EquipmentLookup interface {
	Describe(ctx context.Context, id string) (name, sector string, err error)
}

// CalibrationRecorder es opcional: si el lookup lo implementa, la emisión
// actualiza las fechas de calibración del equipo.
type CalibrationRecorder interface {
	RecordCalibration(ctx context.Context, id string, calibratedAt, expiresAt time.Time) error
}

type Service struct {
	repo      Repository
	numbers   NumberGenerator
	equipment EquipmentLookup
	blobs     blobstore.Store
	bucket    string

	log    logger.Logger
	tracer trace.Tracer
	now    func() time.Time

	// una emisión a la vez: Generate→Create→Override/Increment no debe intercalarse
	emitMu sync.Mutex
}

type Deps struct {
	Repo      Repository
	Numbers   NumberGenerator
	Equipment EquipmentLookup
	Blobs     blobstore.Store
	Bucket    string
	Logger    logger.Logger
}

func NewService(d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}
	bucket := strings.TrimSpace(d.Bucket)
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &Service{
		repo:      d.Repo,
		numbers:   d.Numbers,
		equipment: d.Equipment,
		blobs:     d.Blobs,
		bucket:    bucket,
		log:       log.With(map[string]any{"component": "certificates"}),
		tracer:    otel.Tracer("metrology-records/certificates"),
		now:       time.Now,
	}
}

// Preview devuelve el número que recibiría el próximo certificado.
func (s *Service) Preview(ctx context.Context) (string, error) {
	return s.numbers.Generate(ctx)
}

type EmitInput struct {
	EquipmentID string

	// Vacío => número automático.
	CertificateNumber string

	IssueDate       time.Time // cero => hoy
	CalibrationDate time.Time
	ExpirationDate  time.Time

	File *blobstore.File
}

// Emit registra un certificado. El contador (y el override de un número
// manual) cambia solo si el registro quedó guardado; si el insert falla,
// el archivo subido se elimina y el estado queda como estaba.
func (s *Service) Emit(ctx context.Context, userID string, in EmitInput) (Certificate, error) {
	ctx, span := s.tracer.Start(ctx, "certificates.Emit")
	defer span.End()

	c, err := s.emit(ctx, userID, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if c.CertificateNumber != "" {
		span.SetAttributes(attribute.String("certificate.number", c.CertificateNumber))
	}
	return c, err
}

func (s *Service) emit(ctx context.Context, userID string, in EmitInput) (Certificate, error) {
	userID = strings.TrimSpace(userID)
	equipmentID := strings.ToUpper(strings.TrimSpace(in.EquipmentID))
	manual := strings.TrimSpace(in.CertificateNumber)

	if userID == "" || equipmentID == "" {
		return Certificate{}, ErrInvalidInput
	}
	if in.CalibrationDate.IsZero() || in.ExpirationDate.IsZero() {
		return Certificate{}, ErrInvalidInput
	}
	if in.ExpirationDate.Before(in.CalibrationDate) {
		return Certificate{}, ErrInvalidInput
	}

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	name, sector, err := s.equipment.Describe(ctx, equipmentID)
	if err != nil {
		return Certificate{}, fmt.Errorf("%w: %s", ErrEquipmentNotFound, equipmentID)
	}

	number, err := s.assignNumber(ctx, manual)
	if err != nil {
		return Certificate{}, err
	}

	now := s.now()
	issue := in.IssueDate
	if issue.IsZero() {
		issue = validity.Day(now)
	}

	c := Certificate{
		ID:                uuid.NewString(),
		EquipmentID:       equipmentID,
		EquipmentName:     name,
		CertificateNumber: number,
		IssueDate:         issue,
		CalibrationDate:   in.CalibrationDate,
		ExpirationDate:    in.ExpirationDate,
		Sector:            sector,
		CreatedBy:         userID,
		CreatedAt:         now,
	}

	var stored *blobstore.Stored
	if in.File != nil {
		path := blobstore.ObjectPath(userID, fileDir, in.File.Name, now)
		st, err := s.uploadFile(ctx, path, *in.File)
		if err != nil {
			return Certificate{}, err
		}
		stored = &st
		c.FileName = in.File.Name
		c.FilePath = st.Path
		c.FileURL = st.URL
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if stored != nil {
			s.discard(ctx, stored.Path)
		}
		return Certificate{}, err
	}

	if err := s.advance(ctx, manual); err != nil {
		s.log.Error("certificate saved but sequence was not advanced", map[string]any{
			"certificate_id": c.ID,
			"number":         c.CertificateNumber,
			"manual":         manual != "",
			"error":          err.Error(),
		})
		return c, fmt.Errorf("%w: %v", ErrSequenceNotAdvanced, err)
	}
	s.numbers.RecordEmitted(ctx, number)

	if rec, ok := s.equipment.(CalibrationRecorder); ok {
		if err := rec.RecordCalibration(ctx, equipmentID, c.CalibrationDate, c.ExpirationDate); err != nil {
			s.log.Warn("could not update equipment calibration dates", map[string]any{
				"equipment_id": equipmentID,
				"error":        err.Error(),
			})
		}
	}

	s.log.Info("certificate emitted", map[string]any{
		"certificate_id": c.ID,
		"number":         c.CertificateNumber,
		"equipment_id":   c.EquipmentID,
		"manual":         manual != "",
	})
	return c, nil
}

// assignNumber no toca el estado para un número manual: el override se
// aplica recién cuando el certificado quedó guardado (ver advance).
func (s *Service) assignNumber(ctx context.Context, manual string) (string, error) {
	if manual != "" {
		return manual, nil
	}
	return s.numbers.Generate(ctx)
}

// advance corre solo después de un insert exitoso.
func (s *Service) advance(ctx context.Context, manual string) error {
	if manual != "" {
		if err := s.numbers.Override(ctx, manual); err != nil {
			return fmt.Errorf("override %s: %w", manual, err)
		}
	}
	return s.numbers.Increment(ctx)
}

func (s *Service) uploadFile(ctx context.Context, path string, f blobstore.File) (blobstore.Stored, error) {
	ctx, span := s.tracer.Start(ctx, "certificates.UploadFile")
	defer span.End()

	st, err := blobstore.Put(ctx, s.blobs, s.bucket, path, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, blobstore.ErrEmptyFile) {
			return blobstore.Stored{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return blobstore.Stored{}, err
	}
	return st, nil
}

// discard es best-effort: un huérfano en el bucket no debe tapar el error del insert.
func (s *Service) discard(ctx context.Context, path string) {
	if err := s.blobs.Remove(ctx, s.bucket, path); err != nil {
		s.log.Warn("could not remove orphan certificate file", map[string]any{
			"bucket": s.bucket,
			"path":   path,
			"error":  err.Error(),
		})
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (Certificate, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Certificate{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

type ListInput struct {
	EquipmentID string
	Query       string
	Status      validity.Status
	Limit       int
}

func (s *Service) List(ctx context.Context, in ListInput) ([]Certificate, error) {
	if in.Status != "" && !in.Status.IsValid() {
		return nil, ErrInvalidInput
	}

	f := ListFilter{
		EquipmentID: strings.ToUpper(strings.TrimSpace(in.EquipmentID)),
		Query:       strings.TrimSpace(in.Query),
		Limit:       in.Limit,
	}
	if in.Status != "" {
		f.ExpirationFrom, f.ExpirationTo = validity.Range(in.Status, s.now())
	}
	return s.repo.List(ctx, f)
}

// History lista los certificados de un equipo, el más reciente primero.
func (s *Service) History(ctx context.Context, equipmentID string) ([]Certificate, error) {
	if strings.TrimSpace(equipmentID) == "" {
		return nil, ErrInvalidInput
	}
	return s.List(ctx, ListInput{EquipmentID: equipmentID})
}

// Delete borra el registro y después el archivo (best-effort).
func (s *Service) Delete(ctx context.Context, id string) error {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, c.ID); err != nil {
		return err
	}

	path := c.FilePath
	if path == "" {
		path = blobstore.PathFromPublicURL(s.bucket, c.FileURL)
	}
	if path != "" {
		s.discard(ctx, path)
	}
	return nil
}

// WithClock reemplaza el reloj (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}
