package delivery

import (
	"net/http"
	"strings"

	"github.com/Vovarama1992/portfolio-admin/internal/ports"
)

const loginPath = "/api/login"

// tokenFrom reads the admin token from X-Auth or an Authorization bearer header.
func tokenFrom(r *http.Request) string {
	if t := r.Header.Get("X-Auth"); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func AuthMiddleware(auth ports.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == loginPath || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token := tokenFrom(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "missing token", "")
				return
			}

			ok, err := auth.ValidateToken(r.Context(), token)
			if err != nil || !ok {
				writeError(w, http.StatusUnauthorized, "invalid token", "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
