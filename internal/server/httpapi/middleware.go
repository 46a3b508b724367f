package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/planhub/planhub/internal/server/auth"
	"github.com/planhub/planhub/internal/server/models"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// AuthMiddleware validates the Bearer access token and injects the parsed
// claims into the request context.
func AuthMiddleware(secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				writeError(w, http.StatusUnauthorized, "falta el token de acceso")
				return
			}

			claims, err := auth.ParseToken(token, secretKey)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "token inválido o vencido")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims injected by AuthMiddleware.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims, ok
}

// RequireAdmin rejects requests whose token does not carry the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || claims.Role != models.RoleAdmin {
			writeError(w, http.StatusForbidden, "requiere rol de administrador")
			return
		}
		next.ServeHTTP(w, r)
	})
}
