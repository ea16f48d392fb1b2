package emergency

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

func RegisterRoutes(r chi.Router, svc *Service, roles capabilities.ModuleResolver) {
	r.Route("/emergency-sheets", func(er chi.Router) {
		er.Use(middleware.RequireModule(roles, capabilities.ModuleEmergency))

		er.Get("/", listHandler(svc))
		er.Post("/", createHandler(svc))
		er.Get("/statistics", statisticsHandler(svc))

		er.Get("/{sheetID}", getHandler(svc))
		er.Patch("/{sheetID}", updateHandler(svc))
		er.Delete("/{sheetID}", deleteHandler(svc))
	})
}

func RegisterPublicRoutes(r chi.Router, svc *Service) {
	r.Get("/emergency-sheets", publicListHandler(svc))
	r.Get("/emergency-sheets/statistics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.PublicStatistics(r.Context()))
	})
}

type sheetResponse struct {
	ID          string          `json:"id"`
	Nome        string          `json:"nome"`
	Produto     string          `json:"produto"`
	NumeroOnu   string          `json:"numero_onu"`
	ClasseRisco string          `json:"classe_risco"`
	Setor       string          `json:"setor,omitempty"`
	Validade    time.Time       `json:"validade"`
	Status      validity.Status `json:"status"`
	ArquivoURL  string          `json:"arquivo_url"`
	UserID      string          `json:"user_id"`
	CriadoEm    time.Time       `json:"criado_em"`
}

var sheetFields = []string{"nome", "produto", "numero_onu", "classe_risco", "setor", "validade"}

func createHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, file, cleanup, err := parseForm(r)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		validade, err := validity.ParseDate(strings.TrimSpace(fields["validade"]))
		if err != nil {
			http.Error(w, "validade must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		sh, err := svc.Create(r.Context(), middleware.UserID(r.Context()), CreateInput{
			Nome:        fields["nome"],
			Produto:     fields["produto"],
			NumeroOnu:   fields["numero_onu"],
			ClasseRisco: fields["classe_risco"],
			Setor:       fields["setor"],
			Validade:    validade,
		}, file)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toResponse(sh, svc.now()))
	}
}

func updateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, file, cleanup, err := parseForm(r)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ptr := func(k string) *string {
			if v, ok := fields[k]; ok {
				return &v
			}
			return nil
		}
		in := UpdateInput{
			Nome:        ptr("nome"),
			Produto:     ptr("produto"),
			NumeroOnu:   ptr("numero_onu"),
			ClasseRisco: ptr("classe_risco"),
			Setor:       ptr("setor"),
		}
		if v := ptr("validade"); v != nil {
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
		writeJSON(w, http.StatusOK, toResponse(sh, svc.now()))
	}
}

func listHandler(svc *Service) http.HandlerFunc {
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
		writeJSON(w, http.StatusOK, toResponses(items, svc.now()))
	}
}

func publicListHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := listInputFromQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, toResponses(svc.PublicList(r.Context(), in), svc.now()))
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

func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sh, err := svc.GetByID(r.Context(), chi.URLParam(r, "sheetID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(sh, svc.now()))
	}
}

func deleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "sheetID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseForm(r *http.Request) (map[string]string, *blobstore.File, func(), error) {
	fields := map[string]string{}

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
		file := &blobstore.File{
			Name:        hdr.Filename,
			ContentType: hdr.Header.Get("Content-Type"),
			Size:        hdr.Size,
			Body:        f,
		}
		return fields, file, func() { _ = f.Close() }, nil
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
		Nome:        q.Get("nome"),
		Produto:     q.Get("produto"),
		NumeroOnu:   q.Get("numero_onu"),
		ClasseRisco: q.Get("classe_risco"),
		Setor:       q.Get("setor"),
		Status:      validity.Status(q.Get("status")),
		Limit:       limit,
	}
	for key, dst := range map[string]**time.Time{"validade_from": &in.ValidadeFrom, "validade_to": &in.ValidadeTo} {
		v := strings.TrimSpace(q.Get(key))
		if v == "" {
			continue
		}
		t, err := validity.ParseDate(v)
		if err != nil {
			return ListInput{}, errors.New(key + " must be YYYY-MM-DD")
		}
		*dst = &t
	}
	return in, nil
}

func toResponses(items []Sheet, now time.Time) []sheetResponse {
	out := make([]sheetResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toResponse(it, now))
	}
	return out
}

func toResponse(s Sheet, now time.Time) sheetResponse {
	return sheetResponse{
		ID:          s.ID,
		Nome:        s.Nome,
		Produto:     s.Produto,
		NumeroOnu:   s.NumeroOnu,
		ClasseRisco: s.ClasseRisco,
		Setor:       s.Setor,
		Validade:    s.Validade,
		Status:      s.Status(now),
		ArquivoURL:  s.ArquivoURL,
		UserID:      s.UserID,
		CriadoEm:    s.CriadoEm,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrFileRequired):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "emergency sheet not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
