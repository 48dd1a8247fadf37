package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"ambulancewatch/internal/dto"
	"ambulancewatch/internal/session"
)

// AuthMiddleware lets a request through only when its session carries a logged-in user.
// When required is false everything passes, so protection can be switched on by config.
func AuthMiddleware(sessions *session.Manager, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !required {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sessions.Load(r).Authenticated() {
				next.ServeHTTP(w, r)
				return
			}

			// Zapytania API dostają 401, zwykłe strony przekierowanie na login
			if isAPIRequest(r) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: "Unauthorized"})
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		})
	}
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.HasPrefix(r.URL.Path, "/ws/") ||
		r.Method == http.MethodPost ||
		r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
