package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/pointsbot/internal/api/apierr"
	"github.com/mcoot/pointsbot/internal/middleware"
)

// Recovery answers handler panics with an INTERNAL_ERROR body
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, r *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError(middleware.GetRequestID(r.Context())))
	})
}
