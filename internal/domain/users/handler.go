package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"metrology-records/internal/middleware"
	"metrology-records/internal/ports/capabilities"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, roles capabilities.ModuleResolver) {
	r.Get("/me", meHandler(svc))

	r.Route("/admin/users", func(ar chi.Router) {
		ar.Use(middleware.RequireModule(roles, capabilities.ModuleAdmin))

		ar.Get("/", listUsersHandler(svc))
		ar.Get("/{userID}", getUserHandler(svc))
		ar.Put("/{userID}", upsertUserHandler(svc))
	})
}

type upsertUserRequest struct {
	Email     string `json:"email"`
	Nome      string `json:"nome"`
	Sobrenome string `json:"sobrenome"`
	Role      string `json:"tipo_usuario" enums:"admin,metrologista,quimico"`
	Matricula string `json:"matricula"`
}

type userResponse struct {
	ID        string                `json:"id"`
	Email     string                `json:"email"`
	Nome      string                `json:"nome"`
	Sobrenome string                `json:"sobrenome,omitempty"`
	Role      Role                  `json:"tipo_usuario"`
	Matricula string                `json:"matricula,omitempty"`
	Modules   []capabilities.Module `json:"modules"`
	CreatedAt time.Time             `json:"created_at"`
}

// meHandler devuelve el perfil del usuario autenticado y sus módulos.
func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || claims.UserID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		u, err := svc.Get(r.Context(), claims.UserID)
		if errors.Is(err, ErrNotFound) {
			// sin perfil: se responde con lo que trae el token
			role, _ := ParseRole(claims.Role)
			writeJSON(w, http.StatusOK, toUserResponse(User{ID: claims.UserID, Email: claims.Email, Role: role}))
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))

		items, err := svc.List(r.Context(), ListInput{
			Role:  q.Get("tipo_usuario"),
			Query: q.Get("q"),
			Limit: limit,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toUserResponse(u))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.Get(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func upsertUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req upsertUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.Upsert(r.Context(), UpsertInput{
			ID:        chi.URLParam(r, "userID"),
			Email:     req.Email,
			Nome:      req.Nome,
			Sobrenome: req.Sobrenome,
			Role:      req.Role,
			Matricula: req.Matricula,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func toUserResponse(u User) userResponse {
	mods := Modules(u.Role)
	if mods == nil {
		mods = []capabilities.Module{}
	}
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Nome:      u.Nome,
		Sobrenome: u.Sobrenome,
		Role:      u.Role,
		Matricula: u.Matricula,
		Modules:   mods,
		CreatedAt: u.CreatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidRole):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
