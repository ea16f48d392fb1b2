package certificates

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"metrology-records/internal/domain/certnumber"
	"metrology-records/internal/domain/validity"
	"metrology-records/internal/middleware"
	"metrology-records/internal/ports/blobstore"
	"metrology-records/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 32 << 20

func RegisterRoutes(r chi.Router, svc *Service, roles capabilities.ModuleResolver) {
	guard := middleware.RequireModule(roles, capabilities.ModuleCertificates)

	r.Route("/certificates", func(cr chi.Router) {
		cr.Use(guard)

		cr.Get("/", listCertificatesHandler(svc))
		cr.Post("/", emitCertificateHandler(svc))
		cr.Get("/report.csv", reportHandler(svc))

		cr.Get("/{certificateID}", getCertificateHandler(svc))
		cr.Delete("/{certificateID}", deleteCertificateHandler(svc))
	})

	// Historial de calibraciones de un equipo
	r.With(guard).Get("/equipment/{equipmentID}/certificates", historyHandler(svc))
}

// emitCertificateRequest es el cuerpo JSON (sin archivo). Con archivo se usa
// multipart/form-data con los mismos nombres de campo y "file".
type emitCertificateRequest struct {
	EquipmentID       string `json:"equipment_id"`
	CertificateNumber string `json:"certificate_number"` // opcional: vacío => automático
	IssueDate         string `json:"issue_date"`         // YYYY-MM-DD opcional
	CalibrationDate   string `json:"calibration_date"`   // YYYY-MM-DD
	ExpirationDate    string `json:"expiration_date"`    // YYYY-MM-DD
}

type certificateResponse struct {
	ID                string          `json:"id"`
	EquipmentID       string          `json:"equipment_id"`
	EquipmentName     string          `json:"equipment_name"`
	CertificateNumber string          `json:"certificate_number"`
	IssueDate         time.Time       `json:"issue_date"`
	CalibrationDate   time.Time       `json:"calibration_date"`
	ExpirationDate    time.Time       `json:"expiration_date"`
	Status            validity.Status `json:"status"`
	FileName          string          `json:"file_name,omitempty"`
	FileURL           string          `json:"file_url,omitempty"`
	Sector            string          `json:"sector"`
	CreatedBy         string          `json:"created_by"`
	CreatedAt         time.Time       `json:"created_at"`
}

func emitCertificateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, cleanup, err := decodeEmitRequest(r)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		c, err := svc.Emit(r.Context(), middleware.UserID(r.Context()), in)
		if err != nil {
			if errors.Is(err, ErrSequenceNotAdvanced) {
				w.Header().Set("X-Sequence-Warning", "sequence not advanced")
				writeJSON(w, http.StatusCreated, toCertificateResponse(c, svc.now()))
				return
			}
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toCertificateResponse(c, svc.now()))
	}
}

func decodeEmitRequest(r *http.Request) (EmitInput, func(), error) {
	var req emitCertificateRequest
	var file *blobstore.File
	var cleanup func()

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return EmitInput{}, nil, errors.New("invalid multipart form")
		}
		req = emitCertificateRequest{
			EquipmentID:       r.FormValue("equipment_id"),
			CertificateNumber: r.FormValue("certificate_number"),
			IssueDate:         r.FormValue("issue_date"),
			CalibrationDate:   r.FormValue("calibration_date"),
			ExpirationDate:    r.FormValue("expiration_date"),
		}

		f, hdr, err := r.FormFile("file")
		switch {
		case err == nil:
			cleanup = func() { _ = f.Close() }
			file = &blobstore.File{
				Name:        hdr.Filename,
				ContentType: hdr.Header.Get("Content-Type"),
				Size:        hdr.Size,
				Body:        f,
			}
		case errors.Is(err, http.ErrMissingFile):
			// sin archivo
		default:
			return EmitInput{}, nil, errors.New("invalid file")
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return EmitInput{}, nil, errors.New("invalid json")
	}

	in := EmitInput{
		EquipmentID:       req.EquipmentID,
		CertificateNumber: req.CertificateNumber,
		File:              file,
	}

	var err error
	if in.CalibrationDate, err = parseRequiredDate("calibration_date", req.CalibrationDate); err != nil {
		return EmitInput{}, cleanup, err
	}
	if in.ExpirationDate, err = parseRequiredDate("expiration_date", req.ExpirationDate); err != nil {
		return EmitInput{}, cleanup, err
	}
	if strings.TrimSpace(req.IssueDate) != "" {
		if in.IssueDate, err = validity.ParseDate(strings.TrimSpace(req.IssueDate)); err != nil {
			return EmitInput{}, cleanup, errors.New("issue_date must be YYYY-MM-DD")
		}
	}
	return in, cleanup, nil
}

func listCertificatesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := listInputFromQuery(r)

		items, err := svc.List(r.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCertificateResponses(items, svc.now()))
	}
}

func historyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.History(r.Context(), chi.URLParam(r, "equipmentID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCertificateResponses(items, svc.now()))
	}
}

func reportHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := listInputFromQuery(r)
		if in.Status != "" && !in.Status.IsValid() {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}

		name := fmt.Sprintf("certificados_%s.csv", svc.now().Format("2006-01-02"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)

		if err := svc.Report(r.Context(), w, in); err != nil {
			// headers ya enviados si falló a mitad de escritura
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

func getCertificateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.GetByID(r.Context(), chi.URLParam(r, "certificateID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCertificateResponse(c, svc.now()))
	}
}

func deleteCertificateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "certificateID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listInputFromQuery(r *http.Request) ListInput {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	return ListInput{
		EquipmentID: q.Get("equipment_id"),
		Query:       q.Get("q"),
		Status:      validity.Status(q.Get("status")),
		Limit:       limit,
	}
}

func toCertificateResponses(items []Certificate, now time.Time) []certificateResponse {
	out := make([]certificateResponse, 0, len(items))
	for _, c := range items {
		out = append(out, toCertificateResponse(c, now))
	}
	return out
}

func toCertificateResponse(c Certificate, now time.Time) certificateResponse {
	return certificateResponse{
		ID:                c.ID,
		EquipmentID:       c.EquipmentID,
		EquipmentName:     c.EquipmentName,
		CertificateNumber: c.CertificateNumber,
		IssueDate:         c.IssueDate,
		CalibrationDate:   c.CalibrationDate,
		ExpirationDate:    c.ExpirationDate,
		Status:            c.Status(now),
		FileName:          c.FileName,
		FileURL:           c.FileURL,
		Sector:            c.Sector,
		CreatedBy:         c.CreatedBy,
		CreatedAt:         c.CreatedAt,
	}
}

func parseRequiredDate(field, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	t, err := validity.ParseDate(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD", field)
	}
	return t, nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrEquipmentNotFound):
		http.Error(w, "equipment not found", http.StatusNotFound)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "certificate not found", http.StatusNotFound)
	case errors.Is(err, ErrDuplicateNumber), errors.Is(err, certnumber.ErrSequenceOverflow):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
