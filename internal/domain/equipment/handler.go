package equipment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"metrology-records/internal/domain/validity"
	"metrology-records/internal/middleware"
	"metrology-records/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, roles capabilities.ModuleResolver) {
	r.Route("/equipment", func(er chi.Router) {
		er.Use(middleware.RequireModule(roles, capabilities.ModuleEquipment))

		er.Post("/", createEquipmentHandler(svc))
		er.Get("/", listEquipmentHandler(svc))
		er.Get("/types", listTypesHandler())

		er.Get("/{equipmentID}", getEquipmentHandler(svc))
		er.Patch("/{equipmentID}", updateEquipmentHandler(svc))
		er.Delete("/{equipmentID}", deleteEquipmentHandler(svc))
	})
}

// RegisterPublicRoutes expone la consulta pública (sin auth, solo lectura).
func RegisterPublicRoutes(r chi.Router, svc *Service) {
	r.Get("/equipment", listEquipmentHandler(svc))
}

type createEquipmentRequest struct {
	ID               string `json:"id"` // código, p.ej. PAQ-001
	Type             string `json:"type"`
	Sector           string `json:"sector"`
	Status           Status `json:"status" enums:"available,maintenance,calibration,discarded"`
	LastCalibration  string `json:"last_calibration"` // YYYY-MM-DD opcional
	NextCalibration  string `json:"next_calibration"` // YYYY-MM-DD opcional
	StandardLocation string `json:"standard_location"`
	CurrentLocation  string `json:"current_location"`
	MeasurementRange string `json:"measurement_range"`
	Model            string `json:"model"`
	SerialNumber     string `json:"serial_number"`
	Manufacturer     string `json:"manufacturer"`
}

type updateEquipmentRequest struct {
	Sector           *string `json:"sector"`
	Status           *Status `json:"status"`
	LastCalibration  *string `json:"last_calibration"`
	NextCalibration  *string `json:"next_calibration"`
	StandardLocation *string `json:"standard_location"`
	CurrentLocation  *string `json:"current_location"`
	MeasurementRange *string `json:"measurement_range"`
	Model            *string `json:"model"`
	SerialNumber     *string `json:"serial_number"`
	Manufacturer     *string `json:"manufacturer"`
}

type equipmentResponse struct {
	ID                string          `json:"id"`
	Type              string          `json:"type"`
	Sector            string          `json:"sector"`
	Status            Status          `json:"status"`
	CalibrationStatus validity.Status `json:"calibration_status"`
	LastCalibration   *time.Time      `json:"last_calibration,omitempty"`
	NextCalibration   *time.Time      `json:"next_calibration,omitempty"`
	StandardLocation  string          `json:"standard_location"`
	CurrentLocation   string          `json:"current_location"`
	MeasurementRange  string          `json:"measurement_range"`
	Model             string          `json:"model"`
	SerialNumber      string          `json:"serial_number"`
	Manufacturer      string          `json:"manufacturer"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func createEquipmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createEquipmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		last, err := parseOptionalDate(req.LastCalibration)
		if err != nil {
			http.Error(w, "last_calibration must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		next, err := parseOptionalDate(req.NextCalibration)
		if err != nil {
			http.Error(w, "next_calibration must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		e, err := svc.Create(r.Context(), CreateInput{
			ID:               req.ID,
			Type:             req.Type,
			Sector:           req.Sector,
			Status:           req.Status,
			LastCalibration:  last,
			NextCalibration:  next,
			StandardLocation: req.StandardLocation,
			CurrentLocation:  req.CurrentLocation,
			MeasurementRange: req.MeasurementRange,
			Model:            req.Model,
			SerialNumber:     req.SerialNumber,
			Manufacturer:     req.Manufacturer,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toEquipmentResponse(e, svc.now()))
	}
}

func listEquipmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		page, _ := strconv.Atoi(q.Get("page"))
		size, _ := strconv.Atoi(q.Get("page_size"))

		items, err := svc.List(r.Context(), ListInput{
			Type:              q.Get("type"),
			Sector:            q.Get("sector"),
			Status:            Status(q.Get("status")),
			Query:             q.Get("q"),
			CalibrationStatus: validity.Status(q.Get("calibration_status")),
			Page:              page,
			PageSize:          size,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		now := svc.now()
		out := make([]equipmentResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEquipmentResponse(e, now))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func listTypesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type typeInfo struct {
			Type   string `json:"type"`
			Prefix string `json:"prefix"`
		}
		out := make([]typeInfo, 0, len(typePrefixes))
		for t, p := range typePrefixes {
			out = append(out, typeInfo{Type: t, Prefix: p})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"types":   out,
			"sectors": Sectors,
		})
	}
}

func getEquipmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.GetByID(r.Context(), chi.URLParam(r, "equipmentID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEquipmentResponse(e, svc.now()))
	}
}

func updateEquipmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updateEquipmentRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			Sector:           req.Sector,
			Status:           req.Status,
			StandardLocation: req.StandardLocation,
			CurrentLocation:  req.CurrentLocation,
			MeasurementRange: req.MeasurementRange,
			Model:            req.Model,
			SerialNumber:     req.SerialNumber,
			Manufacturer:     req.Manufacturer,
		}
		if req.LastCalibration != nil {
			t, err := validity.ParseDate(*req.LastCalibration)
			if err != nil {
				http.Error(w, "last_calibration must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.LastCalibration = &t
		}
		if req.NextCalibration != nil {
			t, err := validity.ParseDate(*req.NextCalibration)
			if err != nil {
				http.Error(w, "next_calibration must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.NextCalibration = &t
		}

		e, err := svc.Update(r.Context(), chi.URLParam(r, "equipmentID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEquipmentResponse(e, svc.now()))
	}
}

func deleteEquipmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "equipmentID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toEquipmentResponse(e Equipment, now time.Time) equipmentResponse {
	return equipmentResponse{
		ID:                e.ID,
		Type:              e.Type,
		Sector:            e.Sector,
		Status:            e.Status,
		CalibrationStatus: e.CalibrationStatus(now),
		LastCalibration:   e.LastCalibration,
		NextCalibration:   e.NextCalibration,
		StandardLocation:  e.StandardLocation,
		CurrentLocation:   e.CurrentLocation,
		MeasurementRange:  e.MeasurementRange,
		Model:             e.Model,
		SerialNumber:      e.SerialNumber,
		Manufacturer:      e.Manufacturer,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := validity.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownType), errors.Is(err, ErrInvalidCode):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "equipment not found", http.StatusNotFound)
	case errors.Is(err, ErrAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON está duplicado en cada módulo para no crear un paquete de helpers compartido.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
