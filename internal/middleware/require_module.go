package middleware

import (
	"net/http"
	"strings"

	"metrology-records/internal/ports/capabilities"
)

// RequireModule corta con 401 sin usuario y 403 si el rol no habilita el módulo.
func RequireModule(resolver capabilities.ModuleResolver, module capabilities.Module) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok || strings.TrimSpace(claims.UserID) == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if resolver == nil {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := resolver.HasModule(r.Context(), claims, module)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if !allowed {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
