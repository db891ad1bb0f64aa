package middleware

import (
	"net/http"
	"strings"

	"github.com/mcoot/pointsbot/internal/api/apierr"
	"github.com/mcoot/pointsbot/internal/services/auth"
)

// Auth rejects requests whose bearer token fails verification.
// With no token hash configured every request passes.
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := authService.Verify(bearerToken(r)); err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="pointsbot"`)
				apierr.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken returns the token of an "Authorization: Bearer" header. The
// scheme is matched case-insensitively.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
