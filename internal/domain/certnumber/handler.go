package certnumber

import (
	"encoding/json"
	"errors"
	"net/http"

	"metrology-records/internal/middleware"
	"metrology-records/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, roles capabilities.ModuleResolver) {
	r.Route("/certificate-numbers", func(cr chi.Router) {
		cr.Use(middleware.RequireModule(roles, capabilities.ModuleCertificates))

		// Candidato para el formulario de emisión (read-only en UI)
		cr.Get("/next", nextNumberHandler(svc))
		cr.Get("/last", lastNumberHandler(svc))

		// Correcciones manuales del contador, solo admin. POST /certificates
		// ya avanza el secuencial: llamar a /increment después duplica el salto.
		cr.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireModule(roles, capabilities.ModuleAdmin))
			ar.Post("/increment", incrementHandler(svc))
			ar.Post("/override", overrideHandler(svc))
		})
	})
}

type numberResponse struct {
	Number   string `json:"number"`
	LastUsed string `json:"last_used,omitempty"`
}

type overrideRequest struct {
	Number string `json:"number"`
}

func nextNumberHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.Generate(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, numberResponse{Number: n})
	}
}

func lastNumberHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.Last(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		used, err := svc.LastUsed(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, numberResponse{Number: n, LastUsed: used})
	}
}

func incrementHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Increment(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func overrideHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req overrideRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := svc.Override(r.Context(), req.Number); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, "number is required", http.StatusBadRequest)
	case errors.Is(err, ErrSequenceOverflow):
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
