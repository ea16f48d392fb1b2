package safetysheets

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"metrology-records/internal/domain/validity"
	"metrology-records/internal/middleware"
	"metrology-records/internal/ports/blobstore"
	"metrology-records/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 32 << 20

// RegisterRoutes monta /fdus o /fispqs según el Kind del servicio.
func RegisterRoutes(r chi.Router, svc *Service, roles capabilities.ModuleResolver) {
	r.Route("/"+svc.Kind().Collection(), func(sr chi.Router) {
		sr.Use(middleware.RequireModule(roles, capabilities.ModuleSafetySheets))

		sr.Get("/", listSheetsHandler(svc))
		sr.Post("/", createSheetHandler(svc))
		sr.Get("/statistics", statisticsHandler(svc))

		sr.Get("/{sheetID}", getSheetHandler(svc))
		sr.Patch("/{sheetID}", updateSheetHandler(svc))
		sr.Delete("/{sheetID}", deleteSheetHandler(svc))
	})
}

// RegisterPublicRoutes expone listado y estadísticas sin login.
func RegisterPublicRoutes(r chi.Router, svc *Service) {
	base := "/" + svc.Kind().Collection()
	r.Get(base, publicListHandler(svc))
	r.Get(base+"/statistics", publicStatisticsHandler(svc))
}

type sheetResponse struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	Produto    string          `json:"produto"`
	Fabricante string          `json:"fabricante"`
	NumeroCas  string          `json:"numero_cas,omitempty"`
	Setor      string          `json:"setor"`
	TipoRisco  string          `json:"tipo_risco,omitempty"`
	Validade   time.Time       `json:"validade"`
	Status     validity.Status `json:"status"`
	ArquivoURL string          `json:"arquivo_url"`
	UserID     string          `json:"user_id"`
	CriadoEm   time.Time       `json:"criado_em"`
}

func createSheetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, file, cleanup, err := parseSheetForm(r)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		validade, err := validity.ParseDate(strings.TrimSpace(fields.Get("validade")))
		if err != nil {
			http.Error(w, "validade must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		sh, err := svc.Create(r.Context(), middleware.UserID(r.Context()), CreateInput{
			Produto:    fields.Get("produto"),
			Fabricante: fields.Get("fabricante"),
			NumeroCas:  fields.Get("numero_cas"),
			Setor:      fields.Get("setor"),
			TipoRisco:  fields.Get("tipo_risco"),
			Validade:   validade,
		}, file)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSheetResponse(sh, svc.now()))
	}
}

func updateSheetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, file, cleanup, err := parseSheetForm(r)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			Produto:    fields.ptr("produto"),
			Fabricante: fields.ptr("fabricante"),
			NumeroCas:  fields.ptr("numero_cas"),
			Setor:      fields.ptr("setor"),
			TipoRisco:  fields.ptr("tipo_risco"),
		}
		if v := fields.ptr("validade"); v != nil {
			t, err := validity.ParseDate(strings.TrimSpace(*v))
			if err != nil {
				http.Error(w, "validade must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.Validade = &t
		}

		sh, err := svc.Update(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "sheetID"), in, file)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSheetResponse(sh, svc.now()))
	}
}

func listSheetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := listInputFromQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		items, err := svc.List(r.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSheetResponses(items, svc.now()))
	}
}

func publicListHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := listInputFromQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, toSheetResponses(svc.PublicList(r.Context(), in), svc.now()))
	}
}

func statisticsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Statistics(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func publicStatisticsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.PublicStatistics(r.Context()))
	}
}

func getSheetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sh, err := svc.GetByID(r.Context(), chi.URLParam(r, "sheetID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSheetResponse(sh, svc.now()))
	}
}

func deleteSheetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "sheetID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// formFields distingue "campo ausente" de "campo vacío" para el PATCH.
type formFields map[string]string

func (f formFields) Get(k string) string { return f[k] }

func (f formFields) ptr(k string) *string {
	v, ok := f[k]
	if !ok {
		return nil
	}
	return &v
}

var sheetFields = []string{"produto", "fabricante", "numero_cas", "setor", "tipo_risco", "validade"}

// parseSheetForm acepta multipart (con "file") o JSON sin archivo.
func parseSheetForm(r *http.Request) (formFields, *blobstore.File, func(), error) {
	fields := formFields{}

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "multipart/form-data" {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, nil, nil, errors.New("invalid json")
		}
		for _, k := range sheetFields {
			if v, ok := body[k]; ok {
				fields[k] = v
			}
		}
		return fields, nil, nil, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, nil, errors.New("invalid multipart form")
	}
	for _, k := range sheetFields {
		if vs, ok := r.MultipartForm.Value[k]; ok && len(vs) > 0 {
			fields[k] = vs[0]
		}
	}

	f, hdr, err := r.FormFile("file")
	switch {
	case err == nil:
		return fields, &blobstore.File{
			Name:        hdr.Filename,
			ContentType: hdr.Header.Get("Content-Type"),
			Size:        hdr.Size,
			Body:        f,
		}, func() { _ = f.Close() }, nil
	case errors.Is(err, http.ErrMissingFile):
		return fields, nil, nil, nil
	default:
		return nil, nil, nil, errors.New("invalid file")
	}
}

func listInputFromQuery(r *http.Request) (ListInput, error) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	in := ListInput{
		Produto:    q.Get("produto"),
		Fabricante: q.Get("fabricante"),
		NumeroCas:  q.Get("numero_cas"),
		Setor:      q.Get("setor"),
		TipoRisco:  q.Get("tipo_risco"),
		Status:     validity.Status(q.Get("status")),
		Limit:      limit,
	}
	if v := strings.TrimSpace(q.Get("validade_from")); v != "" {
		t, err := validity.ParseDate(v)
		if err != nil {
			return ListInput{}, errors.New("validade_from must be YYYY-MM-DD")
		}
		in.ValidadeFrom = &t
	}
	if v := strings.TrimSpace(q.Get("validade_to")); v != "" {
		t, err := validity.ParseDate(v)
		if err != nil {
			return ListInput{}, errors.New("validade_to must be YYYY-MM-DD")
		}
		in.ValidadeTo = &t
	}
	return in, nil
}

func toSheetResponses(items []Sheet, now time.Time) []sheetResponse {
	out := make([]sheetResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toSheetResponse(it, now))
	}
	return out
}

func toSheetResponse(s Sheet, now time.Time) sheetResponse {
	return sheetResponse{
		ID:         s.ID,
		Kind:       s.Kind,
		Produto:    s.Produto,
		Fabricante: s.Fabricante,
		NumeroCas:  s.NumeroCas,
		Setor:      s.Setor,
		TipoRisco:  s.TipoRisco,
		Validade:   s.Validade,
		Status:     s.Status(now),
		ArquivoURL: s.ArquivoURL,
		UserID:     s.UserID,
		CriadoEm:   s.CriadoEm,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrFileRequired):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "sheet not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
