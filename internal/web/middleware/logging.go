package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/pointsbot/internal/middleware"
)

// Logging creates request logging middleware for the dashboard
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger.With(slog.String("surface", "web")))
}

// RequestID tags each dashboard request with an id
func RequestID() func(http.Handler) http.Handler {
	return middleware.RequestID()
}
