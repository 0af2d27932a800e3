package middleware

import (
	"net/http"

	"github.com/fieldclock/fieldclock-backend-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// ReviewerOnly gates the manual review workflow and the compliance audit
// query behind the reviewer role claim.
func ReviewerOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, "Invalid token")
			return
		}

		role, ok := claims["role"].(string)
		if !ok || role != "reviewer" {
			response.Forbidden(w, "Reviewer privilege required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
