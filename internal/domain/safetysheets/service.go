package safetysheets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"metrology-records/internal/domain/validity"
	"metrology-records/internal/platform/logger"
	"metrology-records/internal/ports/blobstore"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("sheet not found")
	ErrFileRequired = errors.New("a PDF file is required")
)

const DefaultListLimit = 100

// Service opera sobre una sola colección (una instancia por Kind).
type Service struct {
	kind  Kind
	repo  Repository
	files blobstore.Files
	log   logger.Logger
	now   func() time.Time
}

func NewService(kind Kind, repo Repository, blobs blobstore.Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		kind: kind,
		repo: repo,
		log:  log.With(map[string]any{"component": "safetysheets", "kind": string(kind)}),
		now:  time.Now,
	}
	s.files = blobstore.Files{
		Store:  blobs,
		Bucket: kind.Collection(),
		Dir:    kind.Collection(),
		OnRemoveError: func(path string, err error) {
			s.log.Warn("could not remove sheet file", map[string]any{"path": path, "error": err})
		},
	}
	return s
}

func (s *Service) Kind() Kind { return s.kind }

type CreateInput struct {
	Produto    string
	Fabricante string
	NumeroCas  string
	Setor      string
	TipoRisco  string
	Validade   time.Time
}

// Create sube el PDF (obligatorio) y registra la ficha.
// Si el insert falla, el archivo subido se elimina.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput, file *blobstore.File) (Sheet, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Sheet{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Produto) == "" || strings.TrimSpace(in.Fabricante) == "" ||
		strings.TrimSpace(in.Setor) == "" || in.Validade.IsZero() {
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
		ID:         uuid.NewString(),
		Kind:       s.kind,
		Produto:    strings.TrimSpace(in.Produto),
		Fabricante: strings.TrimSpace(in.Fabricante),
		NumeroCas:  strings.TrimSpace(in.NumeroCas),
		Setor:      strings.TrimSpace(in.Setor),
		TipoRisco:  strings.TrimSpace(in.TipoRisco),
		Validade:   in.Validade,
		ArquivoURL: stored.URL,
		UserID:     userID,
		CriadoEm:   now,
	}

	if err := s.repo.Create(ctx, sh); err != nil {
		s.files.Discard(ctx, stored.Path)
		return Sheet{}, err
	}
	return sh, nil
}

// UpdateInput usa punteros: nil = no tocar.
type UpdateInput struct {
	Produto    *string
	Fabricante *string
	NumeroCas  *string
	Setor      *string
	TipoRisco  *string
	Validade   *time.Time
}

// Update aplica cambios; un archivo nuevo reemplaza al anterior y el viejo
// se borra best-effort después de guardar.
func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput, file *blobstore.File) (Sheet, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return Sheet{}, err
	}

	if err := applyRequired(&cur.Produto, in.Produto); err != nil {
		return Sheet{}, err
	}
	if err := applyRequired(&cur.Fabricante, in.Fabricante); err != nil {
		return Sheet{}, err
	}
	if err := applyRequired(&cur.Setor, in.Setor); err != nil {
		return Sheet{}, err
	}
	if in.NumeroCas != nil {
		cur.NumeroCas = strings.TrimSpace(*in.NumeroCas)
	}
	if in.TipoRisco != nil {
		cur.TipoRisco = strings.TrimSpace(*in.TipoRisco)
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

// Delete borra el registro y luego el archivo (best-effort).
func (s *Service) Delete(ctx context.Context, id string) error {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, s.kind, cur.ID); err != nil {
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
	return s.repo.GetByID(ctx, s.kind, id)
}

type ListInput struct {
	Produto      string
	Fabricante   string
	NumeroCas    string
	Setor        string
	TipoRisco    string
	ValidadeFrom *time.Time
	ValidadeTo   *time.Time
	Status       validity.Status
	Limit        int
}

func (s *Service) List(ctx context.Context, in ListInput) ([]Sheet, error) {
	f, err := s.filter(in)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, s.kind, f)
}

// PublicList es la consulta sin login: ante error devuelve lista vacía.
func (s *Service) PublicList(ctx context.Context, in ListInput) []Sheet {
	items, err := s.List(ctx, in)
	if err != nil {
		s.log.Warn("public list failed", map[string]any{"error": err.Error()})
		return []Sheet{}
	}
	return items
}

func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	items, err := s.repo.List(ctx, s.kind, ListFilter{})
	if err != nil {
		return Statistics{}, fmt.Errorf("list %s: %w", s.kind.Collection(), err)
	}

	now := s.now()
	var counts validity.Counts
	sectors := map[string]struct{}{}
	makers := map[string]struct{}{}

	for _, it := range items {
		counts.Add(it.Validade, now)
		if it.Setor != "" {
			sectors[it.Setor] = struct{}{}
		}
		if it.Fabricante != "" {
			makers[it.Fabricante] = struct{}{}
		}
	}
	return Statistics{
		Total:         counts.Total,
		Expiring:      counts.Expiring,
		Expired:       counts.Expired,
		Sectors:       sortedKeys(sectors),
		Manufacturers: sortedKeys(makers),
	}, nil
}

// PublicStatistics degrada a ceros si el repo falla.
func (s *Service) PublicStatistics(ctx context.Context) PublicStatistics {
	st, err := s.Statistics(ctx)
	if err != nil {
		s.log.Warn("public statistics failed", map[string]any{"error": err.Error()})
		return PublicStatistics{}
	}
	return PublicStatistics{Total: st.Total, Expiring: st.Expiring, Sectors: len(st.Sectors)}
}

func (s *Service) filter(in ListInput) (ListFilter, error) {
	if in.Status != "" && !in.Status.IsValid() {
		return ListFilter{}, ErrInvalidInput
	}

	limit := in.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	f := ListFilter{
		Produto:    strings.TrimSpace(in.Produto),
		Fabricante: strings.TrimSpace(in.Fabricante),
		NumeroCas:  strings.TrimSpace(in.NumeroCas),
		Setor:      strings.TrimSpace(in.Setor),
		TipoRisco:  strings.TrimSpace(in.TipoRisco),
		Limit:      limit,
	}
	// el estado se traduce a rango y se intersecta con el rango explícito
	f.ValidadeFrom, f.ValidadeTo = validity.Narrow(in.Status, s.now(), in.ValidadeFrom, in.ValidadeTo)
	return f, nil
}

func (s *Service) upload(ctx context.Context, userID string, f blobstore.File, now time.Time) (blobstore.Stored, error) {
	st, err := s.files.Upload(ctx, userID, f, now)
	if errors.Is(err, blobstore.ErrEmptyFile) {
		return blobstore.Stored{}, ErrFileRequired
	}
	return st, err
}

func applyRequired(dst *string, v *string) error {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return ErrInvalidInput
	}
	*dst = t
	return nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// WithClock reemplaza el reloj (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}
