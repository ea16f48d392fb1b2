package emergency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"metrology-records/internal/domain/validity"
	"metrology-records/internal/platform/logger"
	"metrology-records/internal/ports/blobstore"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("emergency sheet not found")
	ErrFileRequired = errors.New("a PDF file is required")
)

const DefaultListLimit = 100

type Service struct {
	repo  Repository
	files blobstore.Files
	log   logger.Logger
	now   func() time.Time
}

func NewService(repo Repository, blobs blobstore.Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		repo: repo,
		log:  log.With(map[string]any{"component": "emergency"}),
		now:  time.Now,
	}
	// las fichas van en la raíz del usuario, sin subcarpeta
	s.files = blobstore.Files{
		Store:  blobs,
		Bucket: Bucket,
		OnRemoveError: func(path string, err error) {
			s.log.Warn("could not remove emergency sheet file", map[string]any{"path": path, "error": err})
		},
	}
	return s
}

type CreateInput struct {
	Nome        string
	Produto     string
	NumeroOnu   string
	ClasseRisco string
	Setor       string
	Validade    time.Time
}

func (s *Service) Create(ctx context.Context, userID string, in CreateInput, file *blobstore.File) (Sheet, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || strings.TrimSpace(in.Nome) == "" || strings.TrimSpace(in.Produto) == "" || in.Validade.IsZero() {
		return Sheet{}, ErrInvalidInput
	}
	if file == nil {
		return Sheet{}, ErrFileRequired
	}

	now := s.now()
	stored, err := s.upload(ctx, userID, *file, now)
	if err != nil {
		return Sheet{}, err
	}

	sh := Sheet{
		ID:          uuid.NewString(),
		Nome:        strings.TrimSpace(in.Nome),
		Produto:     strings.TrimSpace(in.Produto),
		NumeroOnu:   strings.TrimSpace(in.NumeroOnu),
		ClasseRisco: strings.TrimSpace(in.ClasseRisco),
		Setor:       strings.TrimSpace(in.Setor),
		Validade:    in.Validade,
		ArquivoURL:  stored.URL,
		UserID:      userID,
		CriadoEm:    now,
	}
	if err := s.repo.Create(ctx, sh); err != nil {
		s.files.Discard(ctx, stored.Path)
		return Sheet{}, err
	}
	return sh, nil
}

type UpdateInput struct {
	Nome        *string
	Produto     *string
	NumeroOnu   *string
	ClasseRisco *string
	Setor       *string
	Validade    *time.Time
}

func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput, file *blobstore.File) (Sheet, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return Sheet{}, err
	}

	for _, f := range []struct {
		dst *string
		v   *string
	}{{&cur.Nome, in.Nome}, {&cur.Produto, in.Produto}} {
		if f.v == nil {
			continue
		}
		if strings.TrimSpace(*f.v) == "" {
			return Sheet{}, ErrInvalidInput
		}
		*f.dst = strings.TrimSpace(*f.v)
	}
	if in.NumeroOnu != nil {
		cur.NumeroOnu = strings.TrimSpace(*in.NumeroOnu)
	}
	if in.ClasseRisco != nil {
		cur.ClasseRisco = strings.TrimSpace(*in.ClasseRisco)
	}
	if in.Setor != nil {
		cur.Setor = strings.TrimSpace(*in.Setor)
	}
	if in.Validade != nil {
		if in.Validade.IsZero() {
			return Sheet{}, ErrInvalidInput
		}
		cur.Validade = *in.Validade
	}

	owner := strings.TrimSpace(userID)
	if owner == "" {
		owner = cur.UserID
	}
	err = s.files.Replace(ctx, owner, file, s.now(), cur.ArquivoURL, func(url string) error {
		if url != "" {
			cur.ArquivoURL = url
		}
		return s.repo.Update(ctx, cur)
	})
	if errors.Is(err, blobstore.ErrEmptyFile) {
		return Sheet{}, ErrFileRequired
	}
	if err != nil {
		return Sheet{}, err
	}
	return cur, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, cur.ID); err != nil {
		return err
	}
	s.files.DiscardURL(ctx, cur.ArquivoURL)
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Sheet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Sheet{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

type ListInput struct {
	Nome         string
	Produto      string
	NumeroOnu    string
	ClasseRisco  string
	Setor        string
	ValidadeFrom *time.Time
	ValidadeTo   *time.Time
	Status       validity.Status
	Limit        int
}

func (s *Service) List(ctx context.Context, in ListInput) ([]Sheet, error) {
	if in.Status != "" && !in.Status.IsValid() {
		return nil, ErrInvalidInput
	}
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	f := ListFilter{
		Nome:        strings.TrimSpace(in.Nome),
		Produto:     strings.TrimSpace(in.Produto),
		NumeroOnu:   strings.TrimSpace(in.NumeroOnu),
		ClasseRisco: strings.TrimSpace(in.ClasseRisco),
		Setor:       strings.TrimSpace(in.Setor),
		Limit:       limit,
	}
	f.ValidadeFrom, f.ValidadeTo = validity.Narrow(in.Status, s.now(), in.ValidadeFrom, in.ValidadeTo)
	return s.repo.List(ctx, f)
}

// PublicList devuelve lista vacía ante error.
func (s *Service) PublicList(ctx context.Context, in ListInput) []Sheet {
	items, err := s.List(ctx, in)
	if err != nil {
		s.log.Warn("public list failed", map[string]any{"error": err.Error()})
		return []Sheet{}
	}
	return items
}

func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	items, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return Statistics{}, fmt.Errorf("list emergency sheets: %w", err)
	}

	now := s.now()
	var counts validity.Counts
	sectors := map[string]struct{}{}
	classes := map[string]struct{}{}
	for _, it := range items {
		counts.Add(it.Validade, now)
		if it.Setor != "" {
			sectors[it.Setor] = struct{}{}
		}
		if it.ClasseRisco != "" {
			classes[it.ClasseRisco] = struct{}{}
		}
	}
	return Statistics{
		Total:         counts.Total,
		Sectors:       len(sectors),
		Expiring:      counts.Expiring,
		Expired:       counts.Expired,
		HazardClasses: len(classes),
	}, nil
}

// PublicStatistics degrada a ceros si el repo falla.
func (s *Service) PublicStatistics(ctx context.Context) Statistics {
	st, err := s.Statistics(ctx)
	if err != nil {
		s.log.Warn("public statistics failed", map[string]any{"error": err.Error()})
		return Statistics{}
	}
	return st
}

func (s *Service) upload(ctx context.Context, userID string, f blobstore.File, now time.Time) (blobstore.Stored, error) {
	st, err := s.files.Upload(ctx, userID, f, now)
	if errors.Is(err, blobstore.ErrEmptyFile) {
		return blobstore.Stored{}, ErrFileRequired
	}
	return st, err
}

// WithClock reemplaza el reloj (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}
